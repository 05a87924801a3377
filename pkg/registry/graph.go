package registry

import (
	"fmt"

	"github.com/sdcio/dataplane-translator/pkg/path"
)

// Graph is the validated, ordered set of registrations.
type Graph struct {
	order    []*Registration
	claims   map[string]*Registration
	parent   map[*Registration]*Registration
	children map[*Registration][]*Registration
}

func newGraph() *Graph {
	return &Graph{
		claims:   map[string]*Registration{},
		parent:   map[*Registration]*Registration{},
		children: map[*Registration][]*Registration{},
	}
}

// Order returns all registrations in execution order.
func (g *Graph) Order() []*Registration {
	return g.order
}

// Lookup returns the registration owning p, the one with the longest claim
// that is a prefix of p.
func (g *Graph) Lookup(p path.Path) (*Registration, bool) {
	schema := p.Schema()
	for i := schema.Len(); i > 0; i-- {
		if r, exists := g.claims[schema[:i].String()]; exists {
			return r, true
		}
	}
	return nil, false
}

// Children returns the registrations whose nearest registered ancestor is
// r, in execution order.
func (g *Graph) Children(r *Registration) []*Registration {
	return g.children[r]
}

// Parent returns the nearest registered ancestor of r.
func (g *Graph) Parent(r *Registration) (*Registration, bool) {
	p, exists := g.parent[r]
	return p, exists
}

// TopLevel returns the registrations without registered ancestor, in
// execution order.
func (g *Graph) TopLevel() []*Registration {
	result := []*Registration{}
	for _, r := range g.order {
		if _, exists := g.parent[r]; !exists {
			result = append(result, r)
		}
	}
	return result
}

func (g *Graph) nearestAncestor(p path.Path) *Registration {
	for i := p.Len() - 1; i > 0; i-- {
		if r, exists := g.claims[p[:i].String()]; exists {
			return r
		}
	}
	return nil
}

func (g *Graph) related(r *Registration, p path.Path) (*Registration, error) {
	other, exists := g.claims[p.String()]
	if !exists {
		return nil, &InvalidRegistrationError{Registration: r, Reason: fmt.Sprintf("ordering constraint references unregistered path %s", p)}
	}
	if other == r {
		return nil, &InvalidRegistrationError{Registration: r, Reason: fmt.Sprintf("ordering constraint references own path %s", p)}
	}
	return other, nil
}
