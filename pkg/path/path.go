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

package path

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/openconfig/gnmi/proto/gnmi"
	"github.com/openconfig/ygot/ygot"
)

const (
	PathSep = "/"
)

// ErrInvalidPath is returned for path strings that cannot be parsed.
var ErrInvalidPath = errors.New("invalid path")

// Keys holds the key values of a list element, keyed by key leaf name.
type Keys map[string]string

// String renders the keys in gNMI notation with sorted key names.
func (k Keys) String() string {
	if len(k) == 0 {
		return ""
	}
	sb := &strings.Builder{}
	for _, name := range slices.Sorted(maps.Keys(k)) {
		fmt.Fprintf(sb, "[%s=%s]", name, k[name])
	}
	return sb.String()
}

// Equal reports whether both key sets carry the same names and values.
func (k Keys) Equal(o Keys) bool {
	return maps.Equal(k, o)
}

// Elem is a single element of a Path.
type Elem struct {
	Name string
	Keys Keys
}

// String returns the element in gNMI notation, e.g. interface[name=eth0].
func (e Elem) String() string {
	return e.Name + e.Keys.String()
}

// HasKeys indicates if the element addresses a specific list instance.
func (e Elem) HasKeys() bool {
	return len(e.Keys) > 0
}

// matches reports if e is matched by the pattern elem p. A pattern element
// without keys matches any instance of the element.
func (e Elem) matches(p Elem) bool {
	if e.Name != p.Name {
		return false
	}
	if !p.HasKeys() {
		return true
	}
	return e.Keys.Equal(p.Keys)
}

func (e Elem) copy() Elem {
	return Elem{Name: e.Name, Keys: maps.Clone(e.Keys)}
}

// Path is a structured identifier of a node in the configuration tree,
// starting at the root. The zero value is the root path.
type Path []Elem

// Root returns the root path.
func Root() Path {
	return Path{}
}

// New builds a keyless path from element names.
func New(names ...string) Path {
	p := make(Path, 0, len(names))
	for _, n := range names {
		p = append(p, Elem{Name: n})
	}
	return p
}

// Parse converts a gNMI style path string like
// "/interfaces/interface[name=eth0]/mtu" into a Path.
func Parse(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == PathSep {
		return Root(), nil
	}
	if err := checkBrackets(s); err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPath, s, err)
	}
	gp, err := ygot.StringToStructuredPath(s)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidPath, s, err)
	}
	return FromGNMI(gp), nil
}

// checkBrackets verifies that every unescaped key bracket of s is closed.
// The ygot parser drops an unterminated key silently.
func checkBrackets(s string) error {
	open := -1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '[':
			if open < 0 {
				open = i
			}
		case ']':
			if open < 0 {
				return fmt.Errorf("unexpected ']' at offset %d", i)
			}
			open = -1
		}
	}
	if open >= 0 {
		return fmt.Errorf("unterminated key starting at offset %d", open)
	}
	return nil
}

// MustParse is like Parse but panics on error. Meant for static registrations.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// FromGNMI converts a gNMI path into a Path.
func FromGNMI(gp *gnmi.Path) Path {
	p := make(Path, 0, len(gp.GetElem()))
	for _, pe := range gp.GetElem() {
		e := Elem{Name: pe.GetName()}
		if len(pe.GetKey()) > 0 {
			e.Keys = maps.Clone(Keys(pe.GetKey()))
		}
		p = append(p, e)
	}
	return p
}

// ToGNMI converts the Path into a gNMI path.
func (p Path) ToGNMI() *gnmi.Path {
	gp := &gnmi.Path{Elem: make([]*gnmi.PathElem, 0, len(p))}
	for _, e := range p {
		pe := &gnmi.PathElem{Name: e.Name}
		if e.HasKeys() {
			pe.Key = maps.Clone(map[string]string(e.Keys))
		}
		gp.Elem = append(gp.Elem, pe)
	}
	return gp
}

// String returns the canonical string representation. Two equal paths
// always render the same string, so it can be used as a map key.
func (p Path) String() string {
	if len(p) == 0 {
		return PathSep
	}
	sb := &strings.Builder{}
	for _, e := range p {
		sb.WriteString(PathSep)
		sb.WriteString(e.String())
	}
	return sb.String()
}

// Len returns the number of elements.
func (p Path) Len() int {
	return len(p)
}

// IsRoot returns true for the root path.
func (p Path) IsRoot() bool {
	return len(p) == 0
}

// Last returns the last element. The root has an empty last element.
func (p Path) Last() Elem {
	if len(p) == 0 {
		return Elem{}
	}
	return p[len(p)-1]
}

// Parent returns the path without the last element.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Root()
	}
	return p.Truncate(len(p) - 1)
}

// Truncate returns a copy of the first n elements.
func (p Path) Truncate(n int) Path {
	if n > len(p) {
		n = len(p)
	}
	return p[:n].Copy()
}

// Copy returns a deep copy of the path.
func (p Path) Copy() Path {
	c := make(Path, 0, len(p))
	for _, e := range p {
		c = append(c, e.copy())
	}
	return c
}

// Append returns a new path extended by the given element.
func (p Path) Append(name string, keys Keys) Path {
	c := make(Path, 0, len(p)+1)
	c = append(c, p.Copy()...)
	return append(c, Elem{Name: name, Keys: maps.Clone(keys)})
}

// Join returns a new path with the elements of o appended.
func (p Path) Join(o Path) Path {
	c := make(Path, 0, len(p)+len(o))
	c = append(c, p.Copy()...)
	return append(c, o.Copy()...)
}

// WithKeys returns a copy of the path with the keys of the last element replaced.
func (p Path) WithKeys(keys Keys) Path {
	c := p.Copy()
	if len(c) > 0 {
		c[len(c)-1].Keys = maps.Clone(keys)
	}
	return c
}

// Schema returns a copy of the path with all keys removed.
func (p Path) Schema() Path {
	c := make(Path, 0, len(p))
	for _, e := range p {
		c = append(c, Elem{Name: e.Name})
	}
	return c
}

// IsWildcarded indicates that the last element carries no keys.
func (p Path) IsWildcarded() bool {
	return !p.Last().HasKeys()
}

// Equal reports whether both paths have the same elements and keys.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i].Name != o[i].Name || !p[i].Keys.Equal(o[i].Keys) {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix matches the leading elements of p.
// Prefix elements without keys act as wildcards.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if !p[i].matches(prefix[i]) {
			return false
		}
	}
	return true
}

// Matches reports whether p is matched by the pattern, element by element.
func (p Path) Matches(pattern Path) bool {
	return len(p) == len(pattern) && p.HasPrefix(pattern)
}

// FirstKeys returns the keys of the first element with the given name.
func (p Path) FirstKeys(name string) (Keys, bool) {
	for _, e := range p {
		if e.Name == name && e.HasKeys() {
			return e.Keys, true
		}
	}
	return nil, false
}

// KeyValue returns the value of key on the first element with the given name.
func (p Path) KeyValue(elem, key string) (string, bool) {
	keys, ok := p.FirstKeys(elem)
	if !ok {
		return "", false
	}
	v, ok := keys[key]
	return v, ok
}
