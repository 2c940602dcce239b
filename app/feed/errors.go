package feed

import (
	"errors"
	"fmt"
)

// ErrTooLarge is returned when an upstream payload exceeds the configured
// size ceiling.
var ErrTooLarge = errors.New("feed payload exceeds size limit")

// FetchError classifies a failed fetch. Transient errors (timeouts, 5xx,
// connection resets) are retried within a cycle; permanent ones (4xx, DNS
// failures) are not.
type FetchError struct {
	Transient bool
	Err       error
}

func (e *FetchError) Error() string {
	if e.Transient {
		return fmt.Sprintf("transient fetch error: %v", e.Err)
	}
	return fmt.Sprintf("permanent fetch error: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func transientError(err error) *FetchError {
	return &FetchError{Transient: true, Err: err}
}

func permanentError(err error) *FetchError {
	return &FetchError{Transient: false, Err: err}
}

// IsTransient reports whether err is a retryable fetch failure.
func IsTransient(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Transient
}
