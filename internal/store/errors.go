package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrNotPending       = errors.New("request is no longer pending")
	ErrPendingExists    = errors.New("pending request already exists")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrMalformedRecord  = errors.New("malformed record")
)

// UnavailableError wraps a driver or connectivity failure.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: store unavailable: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrStoreUnavailable }

// Unavailable tags err as a store failure for operation op.
func Unavailable(op string, err error) error {
	return &UnavailableError{Op: op, Err: err}
}

// MalformedRecordError reports a persisted record that failed validation
// when read back.
type MalformedRecordError struct {
	Collection string
	ID         string
	Reason     string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %s/%s: %s", e.Collection, e.ID, e.Reason)
}

func (e *MalformedRecordError) Is(target error) bool { return target == ErrMalformedRecord }

func Malformed(collection, id, reason string) error {
	return &MalformedRecordError{Collection: collection, ID: id, Reason: reason}
}
