package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrTemporary         = errors.New("temporary failure")

	// ErrStaleRecord marks a write rejected because the record changed after
	// it was read. Repositories wrap it with ErrConflict.
	ErrStaleRecord = errors.New("record changed since it was read")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
