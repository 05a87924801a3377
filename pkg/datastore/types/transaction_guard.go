package types

type TransactionGuard struct {
	cleanup func()
}

// NewTransactionGuard creates a guard running cleanup on Done unless the
// transaction was marked to outlive the calling function.
func NewTransactionGuard(cleanup func()) *TransactionGuard {
	return &TransactionGuard{cleanup: cleanup}
}

// Keep prevents the cleanup function from being called.
func (tg *TransactionGuard) Keep() {
	tg.cleanup = func() {}
}

// Done runs the cleanup, usually deferred right after registration.
func (tg *TransactionGuard) Done() {
	if tg.cleanup != nil {
		tg.cleanup()
	}
}
