// ABOUTME: Typed transient-error classification for torn-down client contexts.
// ABOUTME: Replaces error-message sniffing with errors.As checks at call sites.

package wa

import (
	"errors"
	"fmt"
)

// TransientError wraps a failure caused by the client's underlying context
// being torn down mid-operation, which is expected during logout and
// reconnection. Callers retry or suppress these instead of treating them as
// real failures.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("client context torn down: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a TransientError. A nil err returns nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
