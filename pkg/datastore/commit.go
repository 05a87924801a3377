package datastore

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sdcio/dataplane-translator/pkg/datastore/types"
	"github.com/sdcio/dataplane-translator/pkg/metrics"
	"github.com/sdcio/dataplane-translator/pkg/store"
	"github.com/sdcio/dataplane-translator/pkg/translate"
	"github.com/sdcio/dataplane-translator/pkg/txn"
)

// Commit applies the candidate to the device. Only one commit runs at a
// time, a concurrent commit fails with types.ErrTransactionOngoing.
//
// Mapping changes of the handlers are stored when the apply succeeds, or
// when a revert failed and the device keeps some of them. They are dropped
// when the apply was reverted. With auto revert disabled a failed apply
// stays registered until Revert or Accept is called, or the candidate
// timeout reverts it.
func (d *Datastore) Commit(ctx context.Context, id string) error {
	c, err := d.getCandidate(id)
	if err != nil {
		return err
	}

	trans := types.NewTransaction(id, store.NewTxn(d.store))
	guard, err := d.transactionManager.RegisterTransaction(trans)
	if err != nil {
		return err
	}
	defer guard.Done()

	c.StopTimer()
	defer d.restartCandidateTimer(id)

	log.Infof("Transaction: %s - start", id)
	d.deviceMutex.Lock()
	defer d.deviceMutex.Unlock()

	before := d.Committed()
	after := c.Apply(before)
	wc := txn.New(before, after, trans.Mapping())
	err = d.writer.Apply(ctx, wc)

	var bulk *translate.BulkUpdateFailedError
	var revertFailed *translate.RevertFailedError
	switch {
	case err == nil:
		if err := trans.Mapping().Commit(ctx); err != nil {
			metrics.Commits.WithLabelValues("failed").Inc()
			return fmt.Errorf("transaction %s applied but storing mappings failed: %w", id, err)
		}
		d.setCommitted(after)
		d.removeCandidate(id)
		metrics.Commits.WithLabelValues("success").Inc()
		log.Infof("Transaction: %s - completed", id)
		return nil

	case errors.As(err, &revertFailed):
		// best known device state
		if cerr := trans.Mapping().Commit(ctx); cerr != nil {
			err = errors.Join(err, cerr)
		}
		metrics.Commits.WithLabelValues("revert_failed").Inc()
		log.Errorf("Transaction: %s - device state unknown, reconcile required: %v", id, err)
		return err

	case errors.As(err, &bulk) && !bulk.Reverted():
		if serr := trans.SetFailure(bulk, d.candidateTimeout, func() { d.revertOnTimeout(id) }); serr != nil {
			return errors.Join(err, serr)
		}
		guard.Keep()
		metrics.Commits.WithLabelValues("pending_revert").Inc()
		log.Warnf("Transaction: %s - failed at %s, waiting for revert or accept", id, bulk.Path)
		return err

	case errors.As(err, &bulk):
		trans.Mapping().Discard()
		metrics.Commits.WithLabelValues("reverted").Inc()
		log.Warnf("Transaction: %s - reverted: %v", id, err)
		return err

	default:
		trans.Mapping().Discard()
		metrics.Commits.WithLabelValues("failed").Inc()
		log.Warnf("Transaction: %s - failed: %v", id, err)
		return err
	}
}

// Revert reverts the failed commit id. The mapping changes are stored in
// any case since the revert handlers maintain them.
func (d *Datastore) Revert(ctx context.Context, id string) error {
	d.deviceMutex.Lock()
	defer d.deviceMutex.Unlock()
	// looked up under the lock, a concurrent Accept may have resolved it
	trans, err := d.failedTransaction(id)
	if err != nil {
		return err
	}

	rerr := trans.Revert(ctx)
	err = trans.Mapping().Commit(ctx)
	if cerr := d.transactionManager.CleanupTransaction(id); cerr != nil {
		log.Error(cerr)
	}
	if rerr != nil {
		metrics.Commits.WithLabelValues("revert_failed").Inc()
		return errors.Join(rerr, err)
	}
	metrics.Commits.WithLabelValues("reverted").Inc()
	log.Infof("Transaction: %s - reverted on request", id)
	return err
}

// Accept keeps the partially applied commit id. The mappings are stored and
// the committed configuration is read back from the device.
func (d *Datastore) Accept(ctx context.Context, id string) error {
	if err := d.accept(ctx, id); err != nil {
		return err
	}
	return d.Reconcile(ctx)
}

func (d *Datastore) accept(ctx context.Context, id string) error {
	d.deviceMutex.Lock()
	defer d.deviceMutex.Unlock()
	trans, err := d.failedTransaction(id)
	if err != nil {
		return err
	}
	trans.StopTimer()
	if err := trans.Mapping().Commit(ctx); err != nil {
		return err
	}
	// a failure is no longer pending, reading is allowed again
	if err := d.transactionManager.CleanupTransaction(id); err != nil {
		return err
	}
	d.removeCandidate(id)
	metrics.Commits.WithLabelValues("accepted").Inc()
	log.Infof("Transaction: %s - partial apply accepted", id)
	return nil
}

func (d *Datastore) failedTransaction(id string) (*types.Transaction, error) {
	trans, err := d.transactionManager.GetTransaction(id)
	if err != nil {
		return nil, err
	}
	if trans.Failure() == nil {
		return nil, fmt.Errorf("transaction %s has no pending failure", id)
	}
	return trans, nil
}

func (d *Datastore) revertOnTimeout(id string) {
	log.Warnf("Transaction: %s - no decision within %s, reverting", id, d.candidateTimeout)
	if err := d.Revert(context.Background(), id); err != nil {
		log.Errorf("Transaction: %s - %v", id, err)
	}
}

// restartCandidateTimer restarts the idle timer of a candidate that
// survived its commit.
func (d *Datastore) restartCandidateTimer(id string) {
	c, err := d.getCandidate(id)
	if err != nil {
		return
	}
	if err := c.StartTimer(); err != nil {
		log.Debugf("candidate %s: %v", id, err)
	}
}

func (d *Datastore) removeCandidate(id string) {
	d.m.Lock()
	defer d.m.Unlock()
	if c, ok := d.candidates[id]; ok {
		c.StopTimer()
		delete(d.candidates, id)
	}
}
