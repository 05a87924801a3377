package tree

import (
	"iter"
	"slices"
)

// childMap holds the children of an entry, keyed by the string form of
// their path element.
type childMap struct {
	c map[string]*entry
}

func newChildMap() *childMap {
	return &childMap{
		c: map[string]*entry{},
	}
}

func (c *childMap) Add(e *entry) {
	c.c[e.elem.String()] = e
}

func (c *childMap) Get(s string) (*entry, bool) {
	e, exists := c.c[s]
	return e, exists
}

func (c *childMap) Delete(s string) {
	delete(c.c, s)
}

func (c *childMap) Len() int {
	return len(c.c)
}

// Sorted iterates the children ordered by their element string.
func (c *childMap) Sorted() iter.Seq2[string, *entry] {
	names := make([]string, 0, len(c.c))
	for name := range c.c {
		names = append(names, name)
	}
	slices.Sort(names)
	return func(yield func(string, *entry) bool) {
		for _, name := range names {
			if !yield(name, c.c[name]) {
				return
			}
		}
	}
}
