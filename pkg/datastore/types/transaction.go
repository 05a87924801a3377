package types

import (
	"context"
	"errors"
	"time"

	"github.com/sdcio/dataplane-translator/pkg/store"
	"github.com/sdcio/dataplane-translator/pkg/translate"
)

// Transaction is the commit of one candidate. Its mapping changes are
// buffered until the outcome of the device writes is known.
type Transaction struct {
	transactionId string
	mapping       *store.Txn
	timer         *Timer
	// failed apply waiting for an operator decision
	failure *translate.BulkUpdateFailedError
}

func NewTransaction(id string, mapping *store.Txn) *Transaction {
	return &Transaction{
		transactionId: id,
		mapping:       mapping,
	}
}

func (t *Transaction) GetTransactionId() string {
	return t.transactionId
}

func (t *Transaction) Mapping() *store.Txn {
	return t.mapping
}

func (t *Transaction) Failure() *translate.BulkUpdateFailedError {
	return t.failure
}

// SetFailure keeps a failed apply whose revert was not run. After d the
// revert is triggered through f.
func (t *Transaction) SetFailure(failure *translate.BulkUpdateFailedError, d time.Duration, f func()) error {
	t.failure = failure
	t.timer = NewTimer("revert "+t.transactionId, d, f)
	return t.timer.Start()
}

// Revert runs the revert of the pending failure.
func (t *Transaction) Revert(ctx context.Context) error {
	if t.failure == nil {
		return errors.New("transaction has no pending failure")
	}
	t.StopTimer()
	return t.failure.Revert(ctx)
}

// StopTimer stops the revert timer of a pending failure.
func (t *Transaction) StopTimer() {
	if t.timer != nil {
		t.timer.Stop()
	}
}
