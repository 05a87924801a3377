package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sdcio/dataplane-translator/pkg/path"
	"github.com/sdcio/dataplane-translator/pkg/tree"
)

// ErrUnsupportedOperation is returned (wrapped) by handlers whose device
// cannot perform an operation, typically Update.
var ErrUnsupportedOperation = errors.New("operation not supported")

// ValidationFailedError is returned when a change is rejected before any
// device call.
type ValidationFailedError struct {
	Path  path.Path
	Op    tree.Op
	Cause error
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("validation of %s %s failed: %v", e.Op, e.Path, e.Cause)
}

func (e *ValidationFailedError) Unwrap() error {
	return e.Cause
}

// WriteFailedError is the failure of a single device write.
type WriteFailedError struct {
	Path  path.Path
	Op    tree.Op
	Cause error
}

func (e *WriteFailedError) Error() string {
	return fmt.Sprintf("%s of %s failed: %v", e.Op, e.Path, e.Cause)
}

func (e *WriteFailedError) Unwrap() error {
	return e.Cause
}

// NewWriteFailedError wraps cause unless it already is a WriteFailedError.
func NewWriteFailedError(p path.Path, op tree.Op, cause error) error {
	var wfe *WriteFailedError
	if errors.As(cause, &wfe) {
		return cause
	}
	return &WriteFailedError{Path: p, Op: op, Cause: cause}
}

// ReadFailedError is the failure of reading a path.
type ReadFailedError struct {
	Path  path.Path
	Cause error
}

func (e *ReadFailedError) Error() string {
	return fmt.Sprintf("read of %s failed: %v", e.Path, e.Cause)
}

func (e *ReadFailedError) Unwrap() error {
	return e.Cause
}

// NewReadFailedError wraps cause unless it already is a ReadFailedError.
func NewReadFailedError(p path.Path, cause error) error {
	var rfe *ReadFailedError
	if errors.As(cause, &rfe) {
		return cause
	}
	return &ReadFailedError{Path: p, Cause: cause}
}

// RevertFunc undoes the applied part of a bulk update.
type RevertFunc func(ctx context.Context) error

// BulkUpdateFailedError is returned when a bulk update stopped at Path.
// Revert undoes the changes applied before the failure, it runs at most
// once.
type BulkUpdateFailedError struct {
	Path  path.Path
	Cause error

	revert   RevertFunc
	once     sync.Once
	reverted error
	done     atomic.Bool
}

func NewBulkUpdateFailedError(p path.Path, cause error, revert RevertFunc) *BulkUpdateFailedError {
	return &BulkUpdateFailedError{Path: p, Cause: cause, revert: revert}
}

func (e *BulkUpdateFailedError) Error() string {
	return fmt.Sprintf("bulk update failed at %s: %v", e.Path, e.Cause)
}

func (e *BulkUpdateFailedError) Unwrap() error {
	return e.Cause
}

// Revert undoes the applied changes. Subsequent calls return the result of
// the first one.
func (e *BulkUpdateFailedError) Revert(ctx context.Context) error {
	e.once.Do(func() {
		e.done.Store(true)
		if e.revert != nil {
			e.reverted = e.revert(ctx)
		}
	})
	return e.reverted
}

// Reverted indicates that Revert already ran.
func (e *BulkUpdateFailedError) Reverted() bool {
	return e.done.Load()
}

// RevertFailedError is returned when undoing a failed bulk update failed
// itself. The device is left in a partially reverted state.
type RevertFailedError struct {
	// the bulk update failure that triggered the revert
	Failure *BulkUpdateFailedError
	// path of the revert step that failed
	Path  path.Path
	Cause error
	// changes not confirmed reverted, in revert order
	Unreverted []*tree.Change
}

func (e *RevertFailedError) Error() string {
	unreverted := make([]string, 0, len(e.Unreverted))
	for _, c := range e.Unreverted {
		unreverted = append(unreverted, c.Op.String()+" "+c.Path.String())
	}
	return fmt.Sprintf("revert of %s failed after bulk update failure at %s: %v; not reverted: [%s]",
		e.Path, e.Failure.Path, e.Cause, strings.Join(unreverted, ", "))
}

func (e *RevertFailedError) Unwrap() []error {
	return []error{e.Failure, e.Cause}
}
