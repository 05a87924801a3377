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

package datastore

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sdcio/dataplane-translator/pkg/config"
	"github.com/sdcio/dataplane-translator/pkg/datastore/types"
	"github.com/sdcio/dataplane-translator/pkg/reader"
	"github.com/sdcio/dataplane-translator/pkg/registry"
	"github.com/sdcio/dataplane-translator/pkg/store"
	"github.com/sdcio/dataplane-translator/pkg/tree"
	"github.com/sdcio/dataplane-translator/pkg/writer"
)

var (
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrClosed            = errors.New("datastore closed")
)

// Datastore holds the committed configuration of the device and the
// candidates edited by clients. Commits are applied to the device through
// the writer registry, one at a time.
type Datastore struct {
	store  store.Store
	graph  *registry.Graph
	writer *writer.Registry
	reader *reader.Registry

	candidateTimeout time.Duration

	transactionManager *types.TransactionManager
	// held exclusively while a commit writes to the device
	deviceMutex *sync.RWMutex

	// guards committed, candidates and closed
	m          *sync.RWMutex
	committed  *tree.Tree
	candidates map[string]*types.Candidate
	closed     bool
}

// New creates a Datastore applying changes with the handlers of g. The
// mapping store st is owned by the caller.
func New(cfg *config.Config, st store.Store, g *registry.Graph) *Datastore {
	return &Datastore{
		store:              st,
		graph:              g,
		writer:             writer.New(g, writer.WithAutoRevert(cfg.Write.IsAutoRevert())),
		reader:             reader.New(g, reader.WithWorkers(cfg.Read.Workers)),
		candidateTimeout:   cfg.Transaction.CandidateTimeout,
		transactionManager: types.NewTransactionManager(),
		deviceMutex:        &sync.RWMutex{},
		m:                  &sync.RWMutex{},
		committed:          tree.New(),
		candidates:         map[string]*types.Candidate{},
	}
}

func (d *Datastore) Graph() *registry.Graph {
	return d.graph
}

// Committed returns a copy of the configuration last applied to the device.
func (d *Datastore) Committed() *tree.Tree {
	d.m.RLock()
	defer d.m.RUnlock()
	return d.committed.DeepCopy()
}

func (d *Datastore) setCommitted(t *tree.Tree) {
	d.m.Lock()
	defer d.m.Unlock()
	d.committed = t
}

// Candidates returns the ids of the open candidates.
func (d *Datastore) Candidates() []string {
	d.m.RLock()
	defer d.m.RUnlock()
	return slices.Sorted(maps.Keys(d.candidates))
}

// Reconcile replaces the committed configuration with the state read from
// the device, so the next commit is computed against the real device state.
func (d *Datastore) Reconcile(ctx context.Context) error {
	trans := types.NewTransaction("reconcile", store.NewTxn(d.store))
	guard, err := d.transactionManager.RegisterTransaction(trans)
	if err != nil {
		return err
	}
	defer guard.Done()
	return d.reconcile(ctx, trans.Mapping())
}

func (d *Datastore) reconcile(ctx context.Context, mapping *store.Txn) error {
	result, err := d.readAll(ctx, mapping)
	if err != nil {
		return err
	}
	d.setCommitted(result)
	log.Infof("reconciled %d values from the device", result.Len())
	return nil
}

// Close discards all candidates.
func (d *Datastore) Close() error {
	d.m.Lock()
	defer d.m.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	for id, c := range d.candidates {
		c.StopTimer()
		delete(d.candidates, id)
	}
	return nil
}
