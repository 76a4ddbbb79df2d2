package flow

import "errors"

// transientError marks an execute failure as retryable.
type transientError struct {
	err error
}

func (e *transientError) Error() string {
	return "transient: " + e.err.Error()
}

func (e *transientError) Unwrap() error {
	return e.err
}

// Transient wraps an error to request a retry from the engine. I/O
// timeouts and rate limits are transient; malformed collaborator output
// is not.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether an error anywhere in the chain was marked
// retryable.
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}
