package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable marks a remote cache or position store that cannot be
// reached. Wrap it with [Transient] to let a [RetryPolicy] try again.
var ErrUnavailable = errors.New("backend unavailable")

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as worth retrying. Transient(nil) is nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err was marked with [Transient].
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// RetryPolicy repeats an operation that fails with a transient error,
// doubling the delay after every attempt.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetry tries three times starting at 200ms.
var DefaultRetry = RetryPolicy{Attempts: 3, Delay: 200 * time.Millisecond}

// Do runs fn until it succeeds, fails permanently, the attempts run out or
// ctx is done. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := max(p.Attempts, 1)
	delay := p.Delay

	var err error
	for i := range attempts {
		if err = fn(); err == nil || !IsTransient(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
	return err
}
