package fcontacts

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by repositories when no row matches
	ErrNotFound = errors.New("fcontact not found")

	// ErrEmptyHandle is returned when Resolve is called without a handle
	ErrEmptyHandle = errors.New("handle is required")

	// ErrInvalidDocument is returned when a directory document has no URL
	ErrInvalidDocument = errors.New("directory document must have a url")
)

// InvalidPolicyError is returned for an unknown refresh policy string
type InvalidPolicyError struct {
	Value string
}

func (e *InvalidPolicyError) Error() string {
	return fmt.Sprintf("invalid refresh policy %q: must be auto, force or never", e.Value)
}

// StoreError wraps failures of the local infrastructure (identity store,
// URI interner, statistics tables). These are never absorbed.
type StoreError struct {
	Err error
	Op  string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("fcontact store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsStoreError reports whether err came from the local store
func IsStoreError(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr)
}

// IsValidationError reports whether err is caused by bad caller input
func IsValidationError(err error) bool {
	var policyErr *InvalidPolicyError
	return errors.Is(err, ErrEmptyHandle) ||
		errors.Is(err, ErrInvalidDocument) ||
		errors.As(err, &policyErr)
}
