package dump

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sdcio/dataplane-translator/pkg/path"
)

// KeyFactory derives the cache key of a dump request.
type KeyFactory[P any] interface {
	Key(p path.Path, params P) string
}

// KeyFactoryFunc adapts a function to KeyFactory.
type KeyFactoryFunc[P any] func(p path.Path, params P) string

func (f KeyFactoryFunc[P]) Key(p path.Path, params P) string {
	return f(p, params)
}

// IdentifierKeyFactory builds keys from the dump type, the schema path of
// the request and the dump params. All list keys are dropped, except those of
// the elements named in ScopedBy, so all instances below one scoping parent
// share a key.
type IdentifierKeyFactory[P any] struct {
	DumpType string
	scopedBy []string
}

func NewIdentifierKeyFactory[P any](dumpType string) *IdentifierKeyFactory[P] {
	return &IdentifierKeyFactory[P]{DumpType: dumpType}
}

// ScopedBy keeps the keys of the named elements in the cache key.
func (f *IdentifierKeyFactory[P]) ScopedBy(elems ...string) *IdentifierKeyFactory[P] {
	f.scopedBy = append(f.scopedBy, elems...)
	return f
}

func (f *IdentifierKeyFactory[P]) Key(p path.Path, params P) string {
	sb := &strings.Builder{}
	sb.WriteString(f.DumpType)
	sb.WriteString("|")
	if p.IsRoot() {
		sb.WriteString(path.PathSep)
	}
	for _, e := range p {
		sb.WriteString(path.PathSep)
		sb.WriteString(e.Name)
		if slices.Contains(f.scopedBy, e.Name) {
			sb.WriteString(e.Keys.String())
		}
	}
	fmt.Fprintf(sb, "|%v", params)
	return sb.String()
}
