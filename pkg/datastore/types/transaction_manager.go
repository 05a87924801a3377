package types

import (
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

var (
	ErrTransactionOngoing error = errors.New("transaction ongoing")
)

// TransactionManager admits a single transaction at a time.
type TransactionManager struct {
	tmMutex     *sync.Mutex
	transaction *Transaction
}

func NewTransactionManager() *TransactionManager {
	return &TransactionManager{
		tmMutex: &sync.Mutex{},
	}
}

func (t *TransactionManager) RegisterTransaction(trans *Transaction) (*TransactionGuard, error) {
	t.tmMutex.Lock()
	defer t.tmMutex.Unlock()
	if t.transactionOngoing() {
		return nil, fmt.Errorf("%w: %s", ErrTransactionOngoing, t.transaction.transactionId)
	}

	t.transaction = trans

	return NewTransactionGuard(func() {
		log.Debugf("Transaction: %s - releasing", trans.transactionId)
		if err := t.CleanupTransaction(trans.transactionId); err != nil {
			log.Error(err)
		}
	}), nil
}

// transactionOngoing requires the caller to hold the lock
func (t *TransactionManager) transactionOngoing() bool {
	return t.transaction != nil
}

func (t *TransactionManager) CleanupTransaction(id string) error {
	t.tmMutex.Lock()
	defer t.tmMutex.Unlock()
	if _, err := t.getTransaction(id); err != nil {
		return err
	}
	t.transaction.StopTimer()
	t.transaction = nil
	return nil
}

func (t *TransactionManager) GetTransaction(id string) (*Transaction, error) {
	t.tmMutex.Lock()
	defer t.tmMutex.Unlock()
	return t.getTransaction(id)
}

func (t *TransactionManager) getTransaction(id string) (*Transaction, error) {
	if t.transaction == nil {
		return nil, fmt.Errorf("no active transaction")
	}
	if t.transaction.transactionId != id {
		return nil, fmt.Errorf("transaction id %s is invalid", id)
	}
	return t.transaction, nil
}

// Active returns the id of the ongoing transaction.
func (t *TransactionManager) Active() (string, bool) {
	t.tmMutex.Lock()
	defer t.tmMutex.Unlock()
	if t.transaction == nil {
		return "", false
	}
	return t.transaction.transactionId, true
}

// Failed returns the ongoing transaction if it waits for a revert decision.
func (t *TransactionManager) Failed() (*Transaction, bool) {
	t.tmMutex.Lock()
	defer t.tmMutex.Unlock()
	if t.transaction == nil || t.transaction.failure == nil {
		return nil, false
	}
	return t.transaction, true
}
