package datastore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sdcio/dataplane-translator/pkg/datastore/types"
	"github.com/sdcio/dataplane-translator/pkg/path"
	"github.com/sdcio/dataplane-translator/pkg/tree"
)

// NewCandidate opens a candidate. Candidates not edited or committed within
// the configured timeout are discarded.
func (d *Datastore) NewCandidate(ctx context.Context) (string, error) {
	d.m.Lock()
	defer d.m.Unlock()
	if d.closed {
		return "", ErrClosed
	}
	id := uuid.NewString()
	c := types.NewCandidate(id)
	c.SetTimeout(d.candidateTimeout, func() {
		log.Infof("candidate %s: discarding after %s without activity", id, d.candidateTimeout)
		if err := d.Discard(context.Background(), id); err != nil {
			log.Debugf("candidate %s: %v", id, err)
		}
	})
	if err := c.StartTimer(); err != nil {
		return "", err
	}
	d.candidates[id] = c
	log.Debugf("candidate %s: created", id)
	return id, nil
}

func (d *Datastore) getCandidate(id string) (*types.Candidate, error) {
	d.m.RLock()
	defer d.m.RUnlock()
	c, ok := d.candidates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCandidateNotFound, id)
	}
	return c, nil
}

// Set stores v at p in the candidate. p must be owned by a registered
// handler.
func (d *Datastore) Set(ctx context.Context, id string, p path.Path, v any) error {
	if reg, ok := d.graph.Lookup(p); !ok || reg.IsStructural() && !p.Equal(reg.Root()) {
		return fmt.Errorf("no handler registered for %s", p)
	}
	c, err := d.getCandidate(id)
	if err != nil {
		return err
	}
	c.Set(p, v)
	return nil
}

// Delete removes p and everything below it from the candidate.
func (d *Datastore) Delete(ctx context.Context, id string, p path.Path) error {
	c, err := d.getCandidate(id)
	if err != nil {
		return err
	}
	c.Delete(p)
	return nil
}

// Changes returns the changes a commit of the candidate would apply.
func (d *Datastore) Changes(ctx context.Context, id string) ([]*tree.Change, error) {
	c, err := d.getCandidate(id)
	if err != nil {
		return nil, err
	}
	return c.Changes(d.Committed()), nil
}

func (d *Datastore) Discard(ctx context.Context, id string) error {
	d.m.Lock()
	defer d.m.Unlock()
	c, ok := d.candidates[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCandidateNotFound, id)
	}
	c.StopTimer()
	delete(d.candidates, id)
	log.Debugf("candidate %s: discarded", id)
	return nil
}
