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

package writer

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sdcio/dataplane-translator/pkg/metrics"
	"github.com/sdcio/dataplane-translator/pkg/path"
	"github.com/sdcio/dataplane-translator/pkg/registry"
	"github.com/sdcio/dataplane-translator/pkg/translate"
	"github.com/sdcio/dataplane-translator/pkg/tree"
	"github.com/sdcio/dataplane-translator/pkg/txn"
)

type Option func(*Registry)

// WithAutoRevert controls whether a failed bulk update is reverted before
// Apply returns. Without auto revert the caller runs the revert through
// the returned *translate.BulkUpdateFailedError.
func WithAutoRevert(b bool) Option {
	return func(r *Registry) {
		r.autoRevert = b
	}
}

// Registry applies configuration changes through the writers of a
// registry.Graph.
type Registry struct {
	graph      *registry.Graph
	autoRevert bool
}

func New(g *registry.Graph, opts ...Option) *Registry {
	r := &Registry{
		graph:      g,
		autoRevert: true,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// invocation is one handler call, also the record of the applied log.
type invocation struct {
	reg    *registry.Registration
	writer translate.Writer
	path   path.Path
	op     tree.Op
	before any
	after  any
}

func (i *invocation) change() *tree.Change {
	return &tree.Change{Path: i.path, Before: i.before, After: i.after, Op: i.op}
}

// Apply writes the difference between the before and after tree of wc to
// the device. Every changed instance is handled once by its owning writer,
// in graph order. On the first failure the applied changes are reverted in
// reverse order.
//
// Cancelling ctx has effect only until the first device call. From then on
// the pass and its revert run to completion.
func (r *Registry) Apply(ctx context.Context, wc *txn.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	defer func() {
		metrics.ApplyDuration.Observe(time.Since(start).Seconds())
	}()

	invs, err := r.plan(tree.Diff(wc.Before(), wc.After()), wc)
	if err != nil {
		return err
	}
	if len(invs) == 0 {
		log.Debugf("txn %s: nothing to apply", wc.ID())
		return nil
	}

	if err := r.validate(ctx, invs, wc); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	applyCtx := context.WithoutCancel(ctx)
	applied := make([]*invocation, 0, len(invs))
	for _, inv := range invs {
		log.WithFields(log.Fields{"txn": wc.ID(), "path": inv.path.String(), "op": inv.op.String()}).Debug("applying change")
		err := r.invoke(applyCtx, inv, inv.op, inv.before, inv.after, wc)
		if err == nil {
			metrics.WriteInvocations.WithLabelValues(inv.op.String(), "success").Inc()
			applied = append(applied, inv)
			continue
		}
		metrics.WriteInvocations.WithLabelValues(inv.op.String(), "failed").Inc()
		log.WithFields(log.Fields{"txn": wc.ID(), "path": inv.path.String()}).Warnf("%s failed: %v", inv.op, err)

		bulk := r.bulkFailure(inv, err, applied, wc)
		if !r.autoRevert {
			return bulk
		}
		if rerr := bulk.Revert(applyCtx); rerr != nil {
			return rerr
		}
		return bulk
	}
	log.Infof("txn %s: applied %d changes", wc.ID(), len(applied))
	return nil
}

// plan maps changes to handler invocations. Changes below the root of their
// owning handler collapse into one invocation for the root instance.
func (r *Registry) plan(changes []*tree.Change, wc *txn.Context) ([]*invocation, error) {
	seen := map[string]struct{}{}
	result := []*invocation{}
	for _, c := range changes {
		reg, ok := r.graph.Lookup(c.Path)
		if !ok {
			return nil, fmt.Errorf("no writer registered for %s", c.Path)
		}
		if reg.IsStructural() {
			if c.Path.Len() == reg.Root().Len() {
				continue
			}
			return nil, fmt.Errorf("no writer registered for %s", c.Path)
		}
		instance := c.Path.Truncate(reg.Root().Len())
		if _, exists := seen[instance.String()]; exists {
			continue
		}
		seen[instance.String()] = struct{}{}

		w, ok := reg.Handler().(translate.Writer)
		if !ok {
			return nil, fmt.Errorf("handler %s can not write %s", reg, c.Path)
		}
		inv := &invocation{reg: reg, writer: w, path: instance}
		inv.before, _ = wc.Before().Get(instance)
		inv.after, _ = wc.After().Get(instance)
		switch {
		case !wc.Before().Exists(instance):
			inv.op = tree.OpCreate
		case !wc.After().Exists(instance):
			inv.op = tree.OpDelete
		default:
			inv.op = tree.OpUpdate
		}
		result = append(result, inv)
	}
	sortInvocations(result)
	return result, nil
}

func opRank(op tree.Op) int {
	switch op {
	case tree.OpDelete:
		return 0
	case tree.OpUpdate:
		return 1
	default:
		return 2
	}
}

func sortInvocations(invs []*invocation) {
	slices.SortStableFunc(invs, func(a, b *invocation) int {
		if d := a.reg.Position() - b.reg.Position(); d != 0 {
			return d
		}
		if d := opRank(a.op) - opRank(b.op); d != 0 {
			return d
		}
		return strings.Compare(a.path.String(), b.path.String())
	})
	deleteDescendantsFirst(invs)
}

// deleteDescendantsFirst moves the delete of an instance behind the deletes
// of the instances below it.
func deleteDescendantsFirst(invs []*invocation) {
	for i := len(invs) - 1; i >= 0; i-- {
		inv := invs[i]
		if inv.op != tree.OpDelete {
			continue
		}
		last := -1
		for j := i + 1; j < len(invs); j++ {
			if invs[j].op == tree.OpDelete && invs[j].path.HasPrefix(inv.path) {
				last = j
			}
		}
		if last < 0 {
			continue
		}
		copy(invs[i:last], invs[i+1:last+1])
		invs[last] = inv
	}
}

func (r *Registry) validate(ctx context.Context, invs []*invocation, wc *txn.Context) error {
	for _, inv := range invs {
		v, ok := inv.reg.Handler().(translate.Validator)
		if !ok {
			continue
		}
		if err := v.Validate(ctx, inv.path, inv.op, inv.before, inv.after, wc); err != nil {
			return &translate.ValidationFailedError{Path: inv.path, Op: inv.op, Cause: err}
		}
	}
	return nil
}

func (r *Registry) invoke(ctx context.Context, inv *invocation, op tree.Op, before, after any, wc *txn.Context) error {
	var err error
	switch op {
	case tree.OpCreate:
		err = inv.writer.Create(ctx, inv.path, after, wc)
	case tree.OpUpdate:
		err = inv.writer.Update(ctx, inv.path, before, after, wc)
	case tree.OpDelete:
		err = inv.writer.Delete(ctx, inv.path, before, wc)
	default:
		return fmt.Errorf("unexpected operation %s", op)
	}
	if err != nil {
		return translate.NewWriteFailedError(inv.path, op, err)
	}
	return nil
}

// bulkFailure returns the failure of inv carrying the revert of applied.
func (r *Registry) bulkFailure(inv *invocation, cause error, applied []*invocation, wc *txn.Context) *translate.BulkUpdateFailedError {
	var bulk *translate.BulkUpdateFailedError
	bulk = translate.NewBulkUpdateFailedError(inv.path, cause, func(ctx context.Context) error {
		err := r.revert(context.WithoutCancel(ctx), bulk, applied, wc)
		if err != nil {
			metrics.Reverts.WithLabelValues("failed").Inc()
			log.Errorf("txn %s: %v", wc.ID(), err)
			return err
		}
		metrics.Reverts.WithLabelValues("success").Inc()
		log.Infof("txn %s: reverted %d changes after failure at %s", wc.ID(), len(applied), inv.path)
		return nil
	})
	return bulk
}

// revert undoes applied in reverse order: a create is deleted, a delete is
// re-created and an update is updated back to its before value.
func (r *Registry) revert(ctx context.Context, bulk *translate.BulkUpdateFailedError, applied []*invocation, wc *txn.Context) error {
	for i := len(applied) - 1; i >= 0; i-- {
		a := applied[i]
		op := a.op.Inverse()
		log.WithFields(log.Fields{"txn": wc.ID(), "path": a.path.String(), "op": op.String()}).Debug("reverting change")
		// reverting swaps before and after
		if err := r.invoke(ctx, a, op, a.after, a.before, wc); err != nil {
			unreverted := make([]*tree.Change, 0, i+1)
			for j := i; j >= 0; j-- {
				unreverted = append(unreverted, applied[j].change())
			}
			return &translate.RevertFailedError{
				Failure:    bulk,
				Path:       a.path,
				Cause:      err,
				Unreverted: unreverted,
			}
		}
	}
	return nil
}
