package tree

import (
	"github.com/sdcio/dataplane-translator/pkg/path"
)

// entry is a node of the Tree. An entry may carry a value (the data object
// handled at that path) and children. Entries without value exist to hold
// their children.
type entry struct {
	elem     path.Elem
	value    any
	hasValue bool
	childs   *childMap
}

func newEntry(elem path.Elem) *entry {
	return &entry{
		elem:   elem,
		childs: newChildMap(),
	}
}

func (e *entry) child(elem path.Elem) (*entry, bool) {
	return e.childs.Get(elem.String())
}

func (e *entry) getOrCreateChild(elem path.Elem) *entry {
	c, exists := e.child(elem)
	if !exists {
		c = newEntry(elem)
		e.childs.Add(c)
	}
	return c
}

// empty reports that neither the entry nor any descendant carries a value.
func (e *entry) empty() bool {
	if e.hasValue {
		return false
	}
	for _, c := range e.childs.Sorted() {
		if !c.empty() {
			return false
		}
	}
	return true
}

func (e *entry) walk(p path.Path, f func(p path.Path, e *entry) error) error {
	if err := f(p, e); err != nil {
		return err
	}
	for _, c := range e.childs.Sorted() {
		if err := c.walk(p.Append(c.elem.Name, c.elem.Keys), f); err != nil {
			return err
		}
	}
	return nil
}

func (e *entry) deepCopy() *entry {
	c := &entry{
		elem:     e.elem,
		value:    e.value,
		hasValue: e.hasValue,
		childs:   newChildMap(),
	}
	for _, ch := range e.childs.Sorted() {
		c.childs.Add(ch.deepCopy())
	}
	return c
}
