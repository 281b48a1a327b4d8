package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	// ErrStorage wraps object store failures. The record store is left untouched.
	ErrStorage = errors.New("object storage failure")
	// ErrPartialFailure matches *PartialFailureError.
	ErrPartialFailure = errors.New("partial failure")
	// ErrUnauthorized is returned by Login for unknown emails and bad passwords alike.
	ErrUnauthorized = errors.New("invalid email or password")
)

// PartialFailureError reports a subject purge that left some files behind.
// Calling PurgeSubject again retries only the pending files.
type PartialFailureError struct {
	SubjectID string
	Pending   []string
	Err       error
}

func (e *PartialFailureError) Error() string {
	msg := fmt.Sprintf("purge subject %s: %d file(s) pending [%s]", e.SubjectID, len(e.Pending), strings.Join(e.Pending, ", "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

func (e *PartialFailureError) Is(target error) bool {
	return target == ErrPartialFailure
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundError(kind, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
}

func storageError(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrStorage, op, path, err)
}
