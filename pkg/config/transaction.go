package config

import (
	"fmt"
	"time"

	"github.com/AlekSi/pointer"
)

type ReadConfig struct {
	// max number of list instances read in parallel
	Workers int `yaml:"workers,omitempty" json:"workers,omitempty"`
}

func (r *ReadConfig) validateSetDefaults() error {
	if r.Workers <= 0 {
		r.Workers = defaultReadWorkers
	}
	return nil
}

type WriteConfig struct {
	// revert already applied changes when a later change fails
	AutoRevert *bool `yaml:"auto-revert,omitempty" json:"auto-revert,omitempty"`
}

func (w *WriteConfig) validateSetDefaults() error {
	if w.AutoRevert == nil {
		w.AutoRevert = pointer.ToBool(true)
	}
	return nil
}

// IsAutoRevert returns the effective auto-revert setting.
func (w *WriteConfig) IsAutoRevert() bool {
	return pointer.GetBool(w.AutoRevert)
}

type TransactionConfig struct {
	// candidates not committed within this duration are discarded
	CandidateTimeout time.Duration `yaml:"candidate-timeout,omitempty" json:"candidate-timeout,omitempty"`
}

func (t *TransactionConfig) validateSetDefaults() error {
	if t.CandidateTimeout <= 0 {
		t.CandidateTimeout = defaultCandidateTimeout
	}
	return nil
}

type NamingConfig struct {
	Contexts      []*NamingContext      `yaml:"contexts,omitempty" json:"contexts,omitempty"`
	MultiContexts []*MultiNamingContext `yaml:"multi-contexts,omitempty" json:"multi-contexts,omitempty"`
}

type NamingContext struct {
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	// prefix of names generated for device objects without mapping
	ArtificialPrefix string `yaml:"artificial-prefix,omitempty" json:"artificial-prefix,omitempty"`
}

// MultiNamingContext maps child names to child indexes per parent name.
type MultiNamingContext struct {
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	// first child index handed out per parent
	StartIndex uint32 `yaml:"start-index,omitempty" json:"start-index,omitempty"`
}

func (n *NamingConfig) validateSetDefaults() error {
	if len(n.Contexts) == 0 {
		for _, nc := range DefaultNamingContexts {
			c := *nc
			n.Contexts = append(n.Contexts, &c)
		}
	}
	seen := map[string]struct{}{}
	for _, nc := range n.Contexts {
		if nc.Name == "" {
			return fmt.Errorf("naming context without name")
		}
		if _, exists := seen[nc.Name]; exists {
			return fmt.Errorf("naming context %q defined twice", nc.Name)
		}
		seen[nc.Name] = struct{}{}
		if nc.ArtificialPrefix == "" {
			nc.ArtificialPrefix = defaultArtificialPrefix
		}
	}
	for _, mc := range n.MultiContexts {
		if mc.Name == "" {
			return fmt.Errorf("multi naming context without name")
		}
		if _, exists := seen[mc.Name]; exists {
			return fmt.Errorf("naming context %q defined twice", mc.Name)
		}
		seen[mc.Name] = struct{}{}
	}
	return nil
}
