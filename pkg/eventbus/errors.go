package eventbus

import "errors"

// permanentError marks a failure that redelivery can never fix, such as a
// malformed payload or a duplicate idempotency key.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string {
	return e.err.Error()
}

func (e *permanentError) Unwrap() error {
	return e.err
}

// Permanent wraps err so the dispatcher terminates the message instead of
// requeueing it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err carries the permanent marker
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
