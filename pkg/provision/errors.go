package provision

import (
	"errors"
	"fmt"
)

// ErrorKind names the stage a provisioning request failed in.
type ErrorKind string

const (
	PoolExhausted ErrorKind = "PoolExhausted"
	KeyGenFailed  ErrorKind = "KeyGenFailed"
	PersistFailed ErrorKind = "PersistFailed"
	SyncFailed    ErrorKind = "SyncFailed"
)

// ErrServerUnconfigured is wrapped when neither the server row nor the
// configuration supplies the server public key and endpoint.
var ErrServerUnconfigured = errors.New("tunnel server public key or endpoint not configured")

// Error is a provisioning failure. Err carries the diagnostic detail and
// must not be shown to clients.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provision %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a provisioning error.
func KindOf(err error) (ErrorKind, bool) {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind, true
	}
	return "", false
}

func fail(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}
