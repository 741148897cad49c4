package core

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed caller input such as an empty identity
// or a non-positive leaderboard size.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string { return "validation: " + e.Reason }

// NotFoundError reports a win claim for an identity with no record.
type NotFoundError struct {
	Identity PlayerID
}

func (e NotFoundError) Error() string { return fmt.Sprintf("player %q not found", string(e.Identity)) }

// StoreUnavailableError wraps a backing-store failure. The core never
// retries; retry policy belongs to the caller.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e StoreUnavailableError) Unwrap() error { return e.Err }

// WrapStoreError wraps err as a StoreUnavailableError, passing nil through.
func WrapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return StoreUnavailableError{Op: op, Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// IsStoreUnavailable reports whether err is a StoreUnavailableError.
func IsStoreUnavailable(err error) bool {
	var su StoreUnavailableError
	return errors.As(err, &su)
}
