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

package reader

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sdcio/dataplane-translator/pkg/metrics"
	"github.com/sdcio/dataplane-translator/pkg/path"
	"github.com/sdcio/dataplane-translator/pkg/registry"
	"github.com/sdcio/dataplane-translator/pkg/translate"
	"github.com/sdcio/dataplane-translator/pkg/tree"
	"github.com/sdcio/dataplane-translator/pkg/txn"
)

const defaultWorkers = 8

type Option func(*Registry)

// WithWorkers limits the number of list instances read in parallel.
func WithWorkers(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.workers = n
		}
	}
}

// Registry reads the device state through the readers of a registry.Graph.
type Registry struct {
	graph   *registry.Graph
	workers int
}

func New(g *registry.Graph, opts ...Option) *Registry {
	r := &Registry{
		graph:   g,
		workers: defaultWorkers,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// collector gathers the values of one read operation.
type collector struct {
	m     *sync.Mutex
	t     *tree.Tree
	scope path.Path
}

func newCollector(scope path.Path) *collector {
	return &collector{
		m:     &sync.Mutex{},
		t:     tree.New(),
		scope: scope,
	}
}

func (c *collector) set(p path.Path, v any) {
	c.m.Lock()
	defer c.m.Unlock()
	c.t.Set(p, v)
}

// merge hands v to the merger of the parent value at parent. Parents outside
// of the read scope are left alone.
func (c *collector) merge(m translate.Merger, parent, p path.Path, v any) error {
	if parent.Len() < c.scope.Len() {
		return nil
	}
	c.m.Lock()
	defer c.m.Unlock()
	cur, _ := c.t.Get(parent)
	merged, err := m.Merge(cur, p, v)
	if err != nil {
		return err
	}
	c.t.Set(parent, merged)
	return nil
}

// ReadAll reads everything the registered readers can read. The result is
// also merged into the after tree of rc.
func (r *Registry) ReadAll(ctx context.Context, rc *txn.Context) (*tree.Tree, error) {
	start := time.Now()
	defer func() {
		metrics.ReadDuration.Observe(time.Since(start).Seconds())
	}()

	col := newCollector(path.Root())
	for _, reg := range r.graph.TopLevel() {
		if err := r.read(ctx, reg, reg.Root(), rc, col); err != nil {
			return nil, err
		}
	}
	rc.MergeAfter(col.t)
	log.Debugf("txn %s: read %d values", rc.ID(), col.t.Len())
	return col.t, nil
}

// Read reads p and everything below it. Ancestors of p without keys are
// expanded to all their instances present on the device. A path below the
// root of a handler is read by that handler alone, the result holds the
// value of the handler's instance.
func (r *Registry) Read(ctx context.Context, p path.Path, rc *txn.Context) (*tree.Tree, error) {
	start := time.Now()
	defer func() {
		metrics.ReadDuration.Observe(time.Since(start).Seconds())
	}()

	reg, ok := r.graph.Lookup(p)
	if !ok {
		return nil, translate.NewReadFailedError(p, fmt.Errorf("no reader registered"))
	}
	if p.Len() > reg.Root().Len() && reg.IsStructural() {
		return nil, translate.NewReadFailedError(p, fmt.Errorf("no reader registered"))
	}

	target := p.Truncate(reg.Root().Len())
	candidates, err := r.resolveInstances(ctx, reg, target, rc)
	if err != nil {
		return nil, err
	}

	col := newCollector(target)
	for _, c := range candidates {
		if p.Len() > reg.Root().Len() {
			err = r.readInstances(ctx, reg, c, rc, col, false)
		} else {
			err = r.read(ctx, reg, c, rc, col)
		}
		if err != nil {
			return nil, err
		}
	}
	rc.MergeAfter(col.t)
	return col.t, nil
}

// resolveInstances expands the keyless list elements of p owned by
// registered ancestors of reg to the instances present on the device.
func (r *Registry) resolveInstances(ctx context.Context, reg *registry.Registration, p path.Path, rc *txn.Context) ([]path.Path, error) {
	chain := []*registry.Registration{}
	for a, ok := r.graph.Parent(reg); ok; a, ok = r.graph.Parent(a) {
		chain = append([]*registry.Registration{a}, chain...)
	}

	candidates := []path.Path{p}
	for _, a := range chain {
		lr, ok := a.Handler().(translate.ListReader)
		if !ok {
			continue
		}
		idx := a.Root().Len() - 1
		next := []path.Path{}
		for _, c := range candidates {
			if c[idx].HasKeys() {
				next = append(next, c)
				continue
			}
			list := c.Truncate(idx + 1)
			keys, err := lr.AllKeys(ctx, list, rc)
			if err != nil {
				return nil, translate.NewReadFailedError(list, err)
			}
			for _, k := range keys {
				expanded := c.Copy()
				expanded[idx].Keys = k
				next = append(next, expanded)
			}
		}
		candidates = next
	}
	return candidates, nil
}

// read reads the registration at p, p carrying the keys of all ancestors,
// and recurses into the child registrations.
func (r *Registry) read(ctx context.Context, reg *registry.Registration, p path.Path, rc *txn.Context, col *collector) error {
	if reg.IsStructural() {
		return r.readChildren(ctx, reg, p, rc, col)
	}
	return r.readInstances(ctx, reg, p, rc, col, true)
}

func (r *Registry) readChildren(ctx context.Context, reg *registry.Registration, p path.Path, rc *txn.Context, col *collector) error {
	for _, child := range r.graph.Children(reg) {
		cp := p.Join(child.Root()[p.Len():])
		if err := r.read(ctx, child, cp, rc, col); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) readInstances(ctx context.Context, reg *registry.Registration, p path.Path, rc *txn.Context, col *collector, recurse bool) error {
	rd, ok := reg.Handler().(translate.Reader)
	if !ok {
		log.Debugf("no reader for %s, skipping", p)
		return nil
	}

	instances := []path.Path{p}
	if lr, ok := rd.(translate.ListReader); ok && !p.Last().HasKeys() {
		keys, err := lr.AllKeys(ctx, p, rc)
		if err != nil {
			return translate.NewReadFailedError(p, err)
		}
		instances = instances[:0]
		for _, k := range keys {
			instances = append(instances, p.WithKeys(k))
		}
	}

	merger, _ := reg.Handler().(translate.Merger)
	parent, hasParent := r.valueParent(reg)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, inst := range instances {
		g.Go(func() error {
			v, err := rd.Read(gctx, inst, rc)
			if err != nil {
				return translate.NewReadFailedError(inst, err)
			}
			if v == nil {
				return nil
			}
			col.set(inst, v)
			if merger != nil && hasParent {
				if err := col.merge(merger, inst.Truncate(parent.Root().Len()), inst, v); err != nil {
					return translate.NewReadFailedError(inst, err)
				}
			}
			if !recurse {
				return nil
			}
			return r.readChildren(gctx, reg, inst, rc, col)
		})
	}
	return g.Wait()
}

// valueParent returns the nearest ancestor registration holding a value,
// the one read results are merged into.
func (r *Registry) valueParent(reg *registry.Registration) (*registry.Registration, bool) {
	for a, ok := r.graph.Parent(reg); ok; a, ok = r.graph.Parent(a) {
		if !a.IsStructural() {
			return a, true
		}
	}
	return nil, false
}
