package naming

import (
	"fmt"
	"slices"
	"sync"

	"github.com/sdcio/dataplane-translator/pkg/config"
)

// Registry holds the naming contexts created at startup.
type Registry struct {
	m        *sync.RWMutex
	contexts map[string]*Context
	multi    map[string]*MultiContext
}

func NewRegistry() *Registry {
	return &Registry{
		m:        &sync.RWMutex{},
		contexts: map[string]*Context{},
		multi:    map[string]*MultiContext{},
	}
}

// NewRegistryFromConfig creates a Registry with a Context per configured
// naming context and a MultiContext per configured multi naming context.
func NewRegistryFromConfig(cfg *config.NamingConfig) (*Registry, error) {
	r := NewRegistry()
	for _, nc := range cfg.Contexts {
		if _, err := r.Add(nc.Name, nc.ArtificialPrefix); err != nil {
			return nil, err
		}
	}
	for _, mc := range cfg.MultiContexts {
		if _, err := r.AddMulti(mc.Name, mc.StartIndex); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Add(namespace, artificialPrefix string) (*Context, error) {
	r.m.Lock()
	defer r.m.Unlock()
	if _, exists := r.contexts[namespace]; exists {
		return nil, fmt.Errorf("naming context %s already exists", namespace)
	}
	c := NewContext(namespace, artificialPrefix)
	r.contexts[namespace] = c
	return c, nil
}

func (r *Registry) AddMulti(name string, startIndex uint32) (*MultiContext, error) {
	r.m.Lock()
	defer r.m.Unlock()
	if _, exists := r.multi[name]; exists {
		return nil, fmt.Errorf("multi naming context %s already exists", name)
	}
	c := NewMultiContext(name, startIndex)
	r.multi[name] = c
	return c, nil
}

func (r *Registry) Get(namespace string) (*Context, error) {
	r.m.RLock()
	defer r.m.RUnlock()
	c, exists := r.contexts[namespace]
	if !exists {
		return nil, fmt.Errorf("unknown naming context %s", namespace)
	}
	return c, nil
}

func (r *Registry) GetMulti(name string) (*MultiContext, error) {
	r.m.RLock()
	defer r.m.RUnlock()
	c, exists := r.multi[name]
	if !exists {
		return nil, fmt.Errorf("unknown multi naming context %s", name)
	}
	return c, nil
}

// Namespaces returns the sorted namespaces of the registered contexts.
func (r *Registry) Namespaces() []string {
	r.m.RLock()
	defer r.m.RUnlock()
	result := make([]string, 0, len(r.contexts))
	for ns := range r.contexts {
		result = append(result, ns)
	}
	slices.Sort(result)
	return result
}
