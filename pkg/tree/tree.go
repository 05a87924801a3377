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

package tree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sdcio/dataplane-translator/pkg/path"
)

// ErrStopWalk can be returned by a WalkFunc to end the walk without error.
var ErrStopWalk = errors.New("stop walk")

// WalkFunc is called for every path of the tree that carries a value.
type WalkFunc func(p path.Path, value any) error

// Tree is an in-memory configuration tree. Values are stored at concrete
// (keyed) paths, each value being the data object of the handler responsible
// for that path. A Tree is not safe for concurrent mutation.
type Tree struct {
	root *entry
}

// New returns an empty Tree.
func New() *Tree {
	return &Tree{
		root: newEntry(path.Elem{}),
	}
}

func (t *Tree) lookup(p path.Path) (*entry, bool) {
	e := t.root
	for _, elem := range p {
		c, exists := e.child(elem)
		if !exists {
			return nil, false
		}
		e = c
	}
	return e, true
}

// Set stores value at p, creating all intermediate entries.
func (t *Tree) Set(p path.Path, value any) {
	e := t.root
	for _, elem := range p {
		e = e.getOrCreateChild(elem)
	}
	e.value = value
	e.hasValue = true
}

// Get returns the value stored at p.
func (t *Tree) Get(p path.Path) (any, bool) {
	e, exists := t.lookup(p)
	if !exists || !e.hasValue {
		return nil, false
	}
	return e.value, true
}

// Exists indicates that p carries a value or has descendants carrying values.
func (t *Tree) Exists(p path.Path) bool {
	e, exists := t.lookup(p)
	if !exists {
		return false
	}
	return !e.empty()
}

// Delete removes p and everything below it. Intermediate entries left
// without content are pruned.
func (t *Tree) Delete(p path.Path) {
	if p.IsRoot() {
		t.root = newEntry(path.Elem{})
		return
	}
	parent, exists := t.lookup(p.Parent())
	if !exists {
		return
	}
	parent.childs.Delete(p.Last().String())
	t.prune(p.Parent())
}

// Unset removes only the value at p, keeping its descendants.
func (t *Tree) Unset(p path.Path) {
	e, exists := t.lookup(p)
	if !exists {
		return
	}
	e.value = nil
	e.hasValue = false
	t.prune(p)
}

func (t *Tree) prune(p path.Path) {
	for i := p.Len(); i > 0; i-- {
		cur := p.Truncate(i)
		e, exists := t.lookup(cur)
		if !exists || !e.empty() {
			return
		}
		parent, _ := t.lookup(cur.Parent())
		parent.childs.Delete(cur.Last().String())
	}
}

// Children returns the direct child paths of p in sorted order.
func (t *Tree) Children(p path.Path) []path.Path {
	e, exists := t.lookup(p)
	if !exists {
		return nil
	}
	result := make([]path.Path, 0, e.childs.Len())
	for _, c := range e.childs.Sorted() {
		result = append(result, p.Append(c.elem.Name, c.elem.Keys))
	}
	return result
}

// Find returns the concrete paths carrying a value that match the pattern.
// Pattern elements without keys match every instance.
func (t *Tree) Find(pattern path.Path) []path.Path {
	var result []path.Path
	var find func(e *entry, cur path.Path)
	find = func(e *entry, cur path.Path) {
		if cur.Len() == pattern.Len() {
			if e.hasValue {
				result = append(result, cur)
			}
			return
		}
		for _, c := range e.childs.Sorted() {
			next := cur.Append(c.elem.Name, c.elem.Keys)
			if next.HasPrefix(pattern.Truncate(next.Len())) {
				find(c, next)
			}
		}
	}
	find(t.root, path.Root())
	return result
}

// Walk calls f for every path carrying a value, parents before children and
// siblings in sorted order.
func (t *Tree) Walk(f WalkFunc) error {
	return t.WalkFrom(path.Root(), f)
}

// WalkFrom is like Walk but starts at p.
func (t *Tree) WalkFrom(p path.Path, f WalkFunc) error {
	e, exists := t.lookup(p)
	if !exists {
		return nil
	}
	err := e.walk(p, func(p path.Path, e *entry) error {
		if !e.hasValue {
			return nil
		}
		return f(p, e.value)
	})
	if errors.Is(err, ErrStopWalk) {
		return nil
	}
	return err
}

// Len returns the number of values stored in the tree.
func (t *Tree) Len() int {
	count := 0
	_ = t.Walk(func(path.Path, any) error {
		count++
		return nil
	})
	return count
}

// IsEmpty indicates that the tree carries no value.
func (t *Tree) IsEmpty() bool {
	return t.root.empty()
}

// Subtree returns a copy containing p and everything below it, stored at
// the same absolute paths.
func (t *Tree) Subtree(p path.Path) *Tree {
	result := New()
	_ = t.WalkFrom(p, func(cp path.Path, v any) error {
		result.Set(cp, v)
		return nil
	})
	return result
}

// Merge copies all values of o into t, overwriting existing values.
func (t *Tree) Merge(o *Tree) {
	if o == nil {
		return
	}
	_ = o.Walk(func(p path.Path, v any) error {
		t.Set(p, v)
		return nil
	})
}

// DeepCopy returns a structural copy of the tree. Values are copied by
// assignment, they are expected to be treated as immutable.
func (t *Tree) DeepCopy() *Tree {
	return &Tree{root: t.root.deepCopy()}
}

// String renders the tree for debugging purposes.
func (t *Tree) String() string {
	sb := &strings.Builder{}
	_ = t.Walk(func(p path.Path, v any) error {
		fmt.Fprintf(sb, "%s: %v\n", p, v)
		return nil
	})
	return sb.String()
}
