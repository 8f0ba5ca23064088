package interfaces

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across components.
var (
	// ErrMissingQueryKey is returned when a verification call supplies
	// neither a ledger index nor a transaction reference.
	ErrMissingQueryKey = errors.New("missing query key: supply an index or a tx reference")

	// ErrRecordNotFound indicates the local store holds no matching record.
	ErrRecordNotFound = errors.New("record not found")

	// ErrIdentityNotFound indicates the identity directory holds no match.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrBackendUnavailable indicates a content store backend is unreachable.
	ErrBackendUnavailable = errors.New("content store backend unavailable")

	// ErrInvalidLocationURI indicates a malformed content store location URI.
	ErrInvalidLocationURI = errors.New("invalid content store location URI")
)

// ContentStoreError wraps a failure to store content. Nothing has been
// persisted anywhere when it is returned.
type ContentStoreError struct {
	Backend string
	Err     error
}

func (e *ContentStoreError) Error() string {
	return fmt.Sprintf("content store %s: %v", e.Backend, e.Err)
}

func (e *ContentStoreError) Unwrap() error { return e.Err }

// LedgerWriteError indicates a ledger write definitively failed: the
// transaction was rejected, reverted, or its receipt lacked the expected
// event. Nothing has been persisted locally when it is returned.
type LedgerWriteError struct {
	Op  string
	Err error
}

func (e *LedgerWriteError) Error() string {
	return fmt.Sprintf("ledger write %s failed: %v", e.Op, e.Err)
}

func (e *LedgerWriteError) Unwrap() error { return e.Err }

// LedgerTimeoutError indicates the finalization wait was exceeded. The write
// outcome is unknown: the transaction may still land. Callers must not retry
// the identical write blindly; a read against TxRef or the expected entry
// has to establish the outcome first.
type LedgerTimeoutError struct {
	Op    string
	TxRef TxRef
	Err   error
}

func (e *LedgerTimeoutError) Error() string {
	return fmt.Sprintf("ledger write %s not finalized within wait policy (tx %s, outcome unknown): %v", e.Op, e.TxRef, e.Err)
}

func (e *LedgerTimeoutError) Unwrap() error { return e.Err }
