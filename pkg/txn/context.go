package txn

import (
	"sync"

	"github.com/google/uuid"

	"github.com/sdcio/dataplane-translator/pkg/dump"
	"github.com/sdcio/dataplane-translator/pkg/path"
	"github.com/sdcio/dataplane-translator/pkg/store"
	"github.com/sdcio/dataplane-translator/pkg/tree"
)

// Context is handed to every handler invocation of one transaction. It
// exposes the configuration before and after the transaction, a scratch
// space, the transaction's mapping view and its dump cache. It never talks
// to the device.
type Context struct {
	id      string
	before  *tree.Tree
	after   *tree.Tree
	mapping store.Store
	cache   *dump.ModificationCache
	scratch *Scratch

	// guards before/after, readers store their results concurrently
	m *sync.RWMutex
}

// New creates the context of a write transaction. before and after are not
// modified.
func New(before, after *tree.Tree, mapping store.Store) *Context {
	if before == nil {
		before = tree.New()
	}
	if after == nil {
		after = tree.New()
	}
	return &Context{
		id:      uuid.NewString(),
		before:  before,
		after:   after,
		mapping: mapping,
		cache:   dump.NewModificationCache(),
		scratch: newScratch(),
		m:       &sync.RWMutex{},
	}
}

// NewRead creates the context of a read transaction. Read results are
// collected in the after tree.
func NewRead(mapping store.Store) *Context {
	return New(nil, nil, mapping)
}

func (c *Context) ID() string {
	return c.id
}

// ReadBefore returns the value at p before the transaction.
func (c *Context) ReadBefore(p path.Path) (any, bool) {
	c.m.RLock()
	defer c.m.RUnlock()
	return c.before.Get(p)
}

// ReadAfter returns the value at p after the transaction.
func (c *Context) ReadAfter(p path.Path) (any, bool) {
	c.m.RLock()
	defer c.m.RUnlock()
	return c.after.Get(p)
}

// Before returns the tree before the transaction.
func (c *Context) Before() *tree.Tree {
	return c.before
}

// After returns the tree after the transaction.
func (c *Context) After() *tree.Tree {
	return c.after
}

// MergeAfter copies the values of t into the after tree. Used by readers
// to publish their results.
func (c *Context) MergeAfter(t *tree.Tree) {
	c.m.Lock()
	defer c.m.Unlock()
	c.after.Merge(t)
}

// UpdateAfter runs f on the value at p of the after tree under the write
// lock and stores the returned value.
func (c *Context) UpdateAfter(p path.Path, f func(cur any, exists bool) (any, error)) error {
	c.m.Lock()
	defer c.m.Unlock()
	cur, exists := c.after.Get(p)
	v, err := f(cur, exists)
	if err != nil {
		return err
	}
	c.after.Set(p, v)
	return nil
}

// Mapping returns the mapping view of the transaction.
func (c *Context) Mapping() store.Store {
	return c.mapping
}

// Cache returns the dump cache of the transaction.
func (c *Context) Cache() *dump.ModificationCache {
	return c.cache
}

// Scratch returns the handler scratch space of the transaction.
func (c *Context) Scratch() *Scratch {
	return c.scratch
}
