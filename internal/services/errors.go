package services

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is returned by mutating operations when no user is signed in.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrStoreWrite means a create or delete was rejected by the document store.
	ErrStoreWrite = errors.New("store write failed")
	// ErrStoreRead means listing or fetching entries failed.
	ErrStoreRead = errors.New("store read failed")
	// ErrStoreTimeout means a store call ran past its deadline.
	ErrStoreTimeout = errors.New("store timeout")
	// ErrEntryNotFound is returned by Get for an unknown id.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrInvalidToken is returned by token verifiers for unknown or malformed tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// StoreError wraps a failed store call. It matches both its kind
// (ErrStoreWrite, ErrStoreRead or ErrStoreTimeout) and the underlying cause.
type StoreError struct {
	Op   string
	Kind error
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() []error { return []error{e.Kind, e.Err} }

// storeError classifies err. Deadline failures become ErrStoreTimeout
// regardless of the operation kind.
func storeError(op string, kind, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		kind = ErrStoreTimeout
	}
	return &StoreError{Op: op, Kind: kind, Err: err}
}
