package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a lifecycle call does not match the
	// inspection's current state. State is left unchanged.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrNotFound covers both missing records and records the caller may not see.
	ErrNotFound           = errors.New("not found")
	ErrAssetUnavailable   = errors.New("asset unavailable")
	ErrNothingToReport    = errors.New("nothing to report")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoPassword         = errors.New("no password set")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicate          = errors.New("already exists")
	ErrStorage            = errors.New("storage error")
)

// StorageError wraps a record-store failure with the operation that hit it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Storage wraps err as a *StorageError, passing nil through.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// TransitionError returns an ErrInvalidTransition carrying the attempted move.
func TransitionError(action string, from InspectionStatus) error {
	return fmt.Errorf("%w: cannot %s inspection in status %s", ErrInvalidTransition, action, from)
}
