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

package registry

import (
	"slices"

	"github.com/sdcio/dataplane-translator/pkg/path"
	"github.com/sdcio/dataplane-translator/pkg/translate"
)

// Builder collects handler registrations. Build validates them and computes
// the order in which handlers run.
type Builder struct {
	regs []*Registration
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Register adds handler for paths. paths[0] is the root of the handler,
// further paths are subtrees below the root that the handler also owns.
func (b *Builder) Register(h translate.Handler, paths ...path.Path) *Registration {
	r := &Registration{
		seq:     len(b.regs),
		handler: h,
	}
	if len(paths) > 0 {
		r.root = paths[0].Schema()
		for _, p := range paths[1:] {
			r.subtrees = append(r.subtrees, p.Schema())
		}
	}
	b.regs = append(b.regs, r)
	return r
}

// RegisterBefore registers handler so that it runs before the handlers
// owning the related paths.
func (b *Builder) RegisterBefore(h translate.Handler, paths []path.Path, related ...path.Path) *Registration {
	r := b.Register(h, paths...)
	for _, p := range related {
		r.before = append(r.before, p.Schema())
	}
	return r
}

// RegisterAfter registers handler so that it runs after the handlers
// owning the related paths.
func (b *Builder) RegisterAfter(h translate.Handler, paths []path.Path, related ...path.Path) *Registration {
	r := b.Register(h, paths...)
	for _, p := range related {
		r.after = append(r.after, p.Schema())
	}
	return r
}

// RegisterStructural registers a node without device interaction that only
// groups its children.
func (b *Builder) RegisterStructural(p path.Path) *Registration {
	r := b.Register(nil, p)
	r.structural = true
	return r
}

// Build validates the registrations and returns the ordered Graph.
func (b *Builder) Build() (*Graph, error) {
	g := newGraph()

	for _, r := range b.regs {
		if err := validate(r); err != nil {
			return nil, err
		}
		for _, c := range r.claims() {
			if existing, exists := g.claims[c.String()]; exists {
				return nil, &DuplicateClaimError{Path: c, First: existing, Second: r}
			}
			g.claims[c.String()] = r
		}
	}
	// a claim below another registration's subtree is a duplicate as well
	for _, r := range b.regs {
		for _, c := range r.claims() {
			for i := c.Len() - 1; i > 0; i-- {
				owner, exists := g.claims[c.Truncate(i).String()]
				if !exists || owner == r {
					continue
				}
				if owner.isSubtreeClaim(c.Truncate(i)) {
					return nil, &DuplicateClaimError{Path: c, First: owner, Second: r}
				}
			}
		}
	}

	edges := map[*Registration][]*Registration{}
	indegree := map[*Registration]int{}
	addEdge := func(from, to *Registration) {
		if slices.Contains(edges[from], to) {
			return
		}
		edges[from] = append(edges[from], to)
		indegree[to]++
	}

	for _, r := range b.regs {
		if parent := g.nearestAncestor(r.root); parent != nil {
			g.parent[r] = parent
			addEdge(parent, r)
		}
		for _, p := range r.before {
			other, err := g.related(r, p)
			if err != nil {
				return nil, err
			}
			addEdge(r, other)
		}
		for _, p := range r.after {
			other, err := g.related(r, p)
			if err != nil {
				return nil, err
			}
			addEdge(other, r)
		}
	}

	order := kahn(b.regs, edges, indegree)
	if len(order) < len(b.regs) {
		return nil, &CycleError{Paths: findCycle(b.regs, order, edges)}
	}
	for i, r := range order {
		r.position = i
	}
	g.order = order
	for _, r := range order {
		if parent, exists := g.parent[r]; exists {
			g.children[parent] = append(g.children[parent], r)
		}
	}
	return g, nil
}

func validate(r *Registration) error {
	if r.root.IsRoot() {
		return &InvalidRegistrationError{Registration: r, Reason: "no root path below the tree root"}
	}
	if r.handler == nil && !r.structural {
		return &InvalidRegistrationError{Registration: r, Reason: "no handler"}
	}
	for _, s := range r.subtrees {
		if s.Len() <= r.root.Len() || !s.HasPrefix(r.root) {
			return &InvalidRegistrationError{Registration: r, Reason: "subtree " + s.String() + " is not below the root"}
		}
	}
	return nil
}

// kahn sorts the registrations topologically. Of all registrations ready to
// be placed the one registered first goes first.
func kahn(regs []*Registration, edges map[*Registration][]*Registration, indegree map[*Registration]int) []*Registration {
	remaining := map[*Registration]int{}
	ready := []*Registration{}
	for _, r := range regs {
		remaining[r] = indegree[r]
		if indegree[r] == 0 {
			ready = append(ready, r)
		}
	}
	order := make([]*Registration, 0, len(regs))
	for len(ready) > 0 {
		slices.SortFunc(ready, func(a, b *Registration) int { return a.seq - b.seq })
		r := ready[0]
		ready = ready[1:]
		order = append(order, r)
		for _, next := range edges[r] {
			remaining[next]--
			if remaining[next] == 0 {
				ready = append(ready, next)
			}
		}
	}
	return order
}

// findCycle returns the root paths of a cycle among the registrations that
// could not be ordered.
func findCycle(regs, ordered []*Registration, edges map[*Registration][]*Registration) []path.Path {
	placed := map[*Registration]bool{}
	for _, r := range ordered {
		placed[r] = true
	}
	const (
		unvisited = iota
		visiting
		done
	)
	state := map[*Registration]int{}
	stack := []*Registration{}

	var visit func(r *Registration) []path.Path
	visit = func(r *Registration) []path.Path {
		state[r] = visiting
		stack = append(stack, r)
		for _, next := range edges[r] {
			if placed[next] {
				continue
			}
			switch state[next] {
			case visiting:
				start := slices.Index(stack, next)
				result := []path.Path{}
				for _, s := range stack[start:] {
					result = append(result, s.root)
				}
				return append(result, next.root)
			case unvisited:
				if c := visit(next); c != nil {
					return c
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[r] = done
		return nil
	}
	for _, r := range regs {
		if placed[r] || state[r] != unvisited {
			continue
		}
		if c := visit(r); c != nil {
			return c
		}
	}
	return nil
}
