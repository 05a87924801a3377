package tree

import (
	"reflect"
	"slices"

	"github.com/sdcio/dataplane-translator/pkg/path"
)

// Op classifies a change of a value between two trees.
type Op int

const (
	OpNone Op = iota
	OpCreate
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "none"
	}
}

// Inverse returns the operation that undoes o.
func (o Op) Inverse() Op {
	switch o {
	case OpCreate:
		return OpDelete
	case OpDelete:
		return OpCreate
	default:
		return o
	}
}

// Equaler can be implemented by values that need a custom comparison.
type Equaler interface {
	Equal(other any) bool
}

// ValuesEqual compares two tree values, preferring Equaler over a deep
// comparison.
func ValuesEqual(a, b any) bool {
	if ea, ok := a.(Equaler); ok {
		return ea.Equal(b)
	}
	return reflect.DeepEqual(a, b)
}

// Change describes the difference of a single path between a before and an
// after tree.
type Change struct {
	Path   path.Path
	Before any
	After  any
	Op     Op
}

// Diff returns the changes of every path carrying a value in before or after
// whose value differs, sorted by path.
func Diff(before, after *Tree) []*Change {
	if before == nil {
		before = New()
	}
	if after == nil {
		after = New()
	}
	changes := map[string]*Change{}

	_ = before.Walk(func(p path.Path, v any) error {
		av, exists := after.Get(p)
		switch {
		case !exists:
			changes[p.String()] = &Change{Path: p, Before: v, Op: OpDelete}
		case !ValuesEqual(v, av):
			changes[p.String()] = &Change{Path: p, Before: v, After: av, Op: OpUpdate}
		}
		return nil
	})
	_ = after.Walk(func(p path.Path, v any) error {
		if _, exists := before.Get(p); !exists {
			changes[p.String()] = &Change{Path: p, After: v, Op: OpCreate}
		}
		return nil
	})

	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	result := make([]*Change, 0, len(keys))
	for _, k := range keys {
		result = append(result, changes[k])
	}
	return result
}
