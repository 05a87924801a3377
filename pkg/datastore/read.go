package datastore

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sdcio/dataplane-translator/pkg/datastore/types"
	"github.com/sdcio/dataplane-translator/pkg/path"
	"github.com/sdcio/dataplane-translator/pkg/store"
	"github.com/sdcio/dataplane-translator/pkg/tree"
	"github.com/sdcio/dataplane-translator/pkg/txn"
)

// Read reads p and everything below it from the device.
func (d *Datastore) Read(ctx context.Context, p path.Path) (*tree.Tree, error) {
	d.deviceMutex.RLock()
	defer d.deviceMutex.RUnlock()
	if err := d.checkNoFailure(); err != nil {
		return nil, err
	}
	mapping := store.NewTxn(d.store)
	result, err := d.reader.Read(ctx, p, txn.NewRead(mapping))
	if err != nil {
		mapping.Discard()
		return nil, err
	}
	if err := d.commitLearned(ctx, mapping); err != nil {
		return nil, err
	}
	return result, nil
}

// ReadAll reads everything the registered readers can read from the device.
func (d *Datastore) ReadAll(ctx context.Context) (*tree.Tree, error) {
	return d.readAll(ctx, store.NewTxn(d.store))
}

func (d *Datastore) readAll(ctx context.Context, mapping *store.Txn) (*tree.Tree, error) {
	d.deviceMutex.RLock()
	defer d.deviceMutex.RUnlock()
	if err := d.checkNoFailure(); err != nil {
		return nil, err
	}
	result, err := d.reader.ReadAll(ctx, txn.NewRead(mapping))
	if err != nil {
		mapping.Discard()
		return nil, err
	}
	if err := d.commitLearned(ctx, mapping); err != nil {
		return nil, err
	}
	return result, nil
}

// commitLearned stores the artificial names assigned during a read.
func (d *Datastore) commitLearned(ctx context.Context, mapping *store.Txn) error {
	n := mapping.Pending()
	if err := mapping.Commit(ctx); err != nil {
		return fmt.Errorf("failed storing learned mappings: %w", err)
	}
	if n > 0 {
		log.Infof("learned %d mappings from the device", n)
	}
	return nil
}

// checkNoFailure refuses reads while the device state of a failed commit is
// undecided.
func (d *Datastore) checkNoFailure() error {
	if t, ok := d.transactionManager.Failed(); ok {
		return fmt.Errorf("%w: %s waits for revert or accept", types.ErrTransactionOngoing, t.GetTransactionId())
	}
	return nil
}
