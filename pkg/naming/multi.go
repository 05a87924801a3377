package naming

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sdcio/dataplane-translator/pkg/store"
)

var ErrIndexBelowStart = errors.New("index below start index")

// MultiContext maps child names to child indexes per parent name, e.g.
// sub-interfaces or rules of one interface. Child indexes are allocated
// from startIndex upwards.
type MultiContext struct {
	name       string
	startIndex uint32

	mu sync.Mutex
}

func NewMultiContext(name string, startIndex uint32) *MultiContext {
	return &MultiContext{name: name, startIndex: startIndex}
}

func (c *MultiContext) Name() string {
	return c.name
}

func (c *MultiContext) view(m store.Store, parent string) *View {
	return &View{namespace: c.name + "/" + parent, m: m}
}

func (c *MultiContext) AddChild(ctx context.Context, m store.Store, parent string, childIndex uint32, childName string) error {
	if childIndex < c.startIndex {
		return fmt.Errorf("%w %d: %d", ErrIndexBelowStart, c.startIndex, childIndex)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(m, parent).AddName(ctx, childIndex, childName)
}

// AddChildNextIndex maps childName to the next free child index of parent.
func (c *MultiContext) AddChildNextIndex(ctx context.Context, m store.Store, parent, childName string) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.view(m, parent)
	entries, err := v.Mappings(ctx)
	if err != nil {
		return 0, err
	}
	next := c.startIndex
	for _, e := range entries {
		if e.Index >= next {
			next = e.Index + 1
		}
	}
	if err := v.AddName(ctx, next, childName); err != nil {
		return 0, err
	}
	return next, nil
}

func (c *MultiContext) GetChildName(ctx context.Context, m store.Store, parent string, childIndex uint32) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(m, parent).GetName(ctx, childIndex)
}

func (c *MultiContext) GetChildIndex(ctx context.Context, m store.Store, parent, childName string) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(m, parent).GetIndex(ctx, childName)
}

// RemoveChild is a no-op for unknown parents or children.
func (c *MultiContext) RemoveChild(ctx context.Context, m store.Store, parent, childName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(m, parent).RemoveName(ctx, childName)
}

func (c *MultiContext) Children(ctx context.Context, m store.Store, parent string) ([]*store.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(m, parent).Mappings(ctx)
}
