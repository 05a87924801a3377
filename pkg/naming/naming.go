// Copyright 2024 Nokia
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package naming

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sdcio/dataplane-translator/pkg/store"
)

var (
	ErrNotFound      = errors.New("no mapping found")
	ErrAlreadyMapped = errors.New("already mapped")
)

// Context maps symbolic names to device indexes within one namespace.
// The mapping is injective in both directions. All operations act on the
// mapping view handed in by the caller, usually the transaction's store.Txn.
type Context struct {
	namespace        string
	artificialPrefix string

	mu sync.Mutex
}

// NewContext creates the naming context for namespace. Device objects
// without a mapping are named artificialPrefix followed by their index.
func NewContext(namespace, artificialPrefix string) *Context {
	return &Context{
		namespace:        namespace,
		artificialPrefix: artificialPrefix,
	}
}

func (c *Context) Namespace() string {
	return c.namespace
}

// Atomically runs fn while holding the namespace lock. Use it for
// read-modify-write sequences that must not interleave with other
// mutations of the namespace.
func (c *Context) Atomically(ctx context.Context, m store.Store, fn func(v *View) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.view(m))
}

func (c *Context) view(m store.Store) *View {
	return &View{namespace: c.namespace, prefix: c.artificialPrefix, m: m}
}

func (c *Context) GetIndex(ctx context.Context, m store.Store, name string) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(m).GetIndex(ctx, name)
}

func (c *Context) ContainsIndex(ctx context.Context, m store.Store, name string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(m).ContainsIndex(ctx, name)
}

func (c *Context) ContainsName(ctx context.Context, m store.Store, index uint32) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(m).ContainsName(ctx, index)
}

func (c *Context) GetName(ctx context.Context, m store.Store, index uint32) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(m).GetName(ctx, index)
}

func (c *Context) GetOrCreateName(ctx context.Context, m store.Store, index uint32) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(m).GetOrCreateName(ctx, index)
}

func (c *Context) AddName(ctx context.Context, m store.Store, index uint32, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(m).AddName(ctx, index, name)
}

func (c *Context) AddNameNextIndex(ctx context.Context, m store.Store, name string) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(m).AddNameNextIndex(ctx, name)
}

func (c *Context) RemoveName(ctx context.Context, m store.Store, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(m).RemoveName(ctx, name)
}

func (c *Context) Mappings(ctx context.Context, m store.Store) ([]*store.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(m).Mappings(ctx)
}

// View is the unlocked form of the naming operations on one mapping view.
// It is only valid inside Context.Atomically.
type View struct {
	namespace string
	prefix    string
	m         store.Store
}

// GetIndex returns the index mapped to name or ErrNotFound.
func (v *View) GetIndex(ctx context.Context, name string) (uint32, error) {
	idx, ok, err := v.m.Get(ctx, v.namespace, name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w for name %q in %s", ErrNotFound, name, v.namespace)
	}
	return idx, nil
}

// ContainsIndex reports whether name has an index mapped.
func (v *View) ContainsIndex(ctx context.Context, name string) (bool, error) {
	_, ok, err := v.m.Get(ctx, v.namespace, name)
	return ok, err
}

// ContainsName reports whether index has a name mapped.
func (v *View) ContainsName(ctx context.Context, index uint32) (bool, error) {
	_, ok, err := v.lookupName(ctx, index)
	return ok, err
}

// GetName returns the name mapped to index or ErrNotFound.
func (v *View) GetName(ctx context.Context, index uint32) (string, error) {
	name, ok, err := v.lookupName(ctx, index)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w for index %d in %s", ErrNotFound, index, v.namespace)
	}
	return name, nil
}

// GetOrCreateName returns the name mapped to index. Indexes without a
// mapping get an artificial name which is stored.
func (v *View) GetOrCreateName(ctx context.Context, index uint32) (string, error) {
	name, ok, err := v.lookupName(ctx, index)
	if err != nil || ok {
		return name, err
	}
	name = v.ArtificialName(index)
	if err := v.AddName(ctx, index, name); err != nil {
		return "", err
	}
	return name, nil
}

func (v *View) ArtificialName(index uint32) string {
	return fmt.Sprintf("%s%d", v.prefix, index)
}

// AddName maps name to index. Neither must be mapped already, changing the
// index of a name is RemoveName followed by AddName.
func (v *View) AddName(ctx context.Context, index uint32, name string) error {
	if existing, ok, err := v.m.Get(ctx, v.namespace, name); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("name %q %w to index %d in %s", name, ErrAlreadyMapped, existing, v.namespace)
	}
	if existing, ok, err := v.lookupName(ctx, index); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("index %d %w to name %q in %s", index, ErrAlreadyMapped, existing, v.namespace)
	}
	return v.m.Put(ctx, v.namespace, name, index)
}

// AddNameNextIndex maps name to the highest mapped index plus one, or 0 for
// an empty namespace.
func (v *View) AddNameNextIndex(ctx context.Context, name string) (uint32, error) {
	entries, err := v.m.List(ctx, v.namespace)
	if err != nil {
		return 0, err
	}
	var next uint32
	for _, e := range entries {
		if e.Index >= next {
			next = e.Index + 1
		}
	}
	if err := v.AddName(ctx, next, name); err != nil {
		return 0, err
	}
	return next, nil
}

// RemoveName deletes the mapping of name. Removing an unmapped name is a no-op.
func (v *View) RemoveName(ctx context.Context, name string) error {
	return v.m.Delete(ctx, v.namespace, name)
}

func (v *View) Mappings(ctx context.Context) ([]*store.Entry, error) {
	return v.m.List(ctx, v.namespace)
}

func (v *View) lookupName(ctx context.Context, index uint32) (string, bool, error) {
	entries, err := v.m.List(ctx, v.namespace)
	if err != nil {
		return "", false, err
	}
	for _, e := range entries {
		if e.Index == index {
			return e.Name, true, nil
		}
	}
	return "", false, nil
}
