package backend

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse indicates the backend answered with a payload that
// does not match any shape this client knows how to read.
var ErrMalformedResponse = errors.New("malformed backend response")

// TransportError wraps a failure to reach the backend or a non-success
// HTTP status. It is distinct from ErrMalformedResponse so callers can
// tell "backend down" apart from "backend speaking a different dialect".
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
