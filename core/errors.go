package core

import (
	"errors"
	"fmt"
)

// ErrNoResult is reported when a capability produced no usable response at all.
var ErrNoResult = errors.New("no result")

// TransportError reports that a remote endpoint was unreachable or answered
// with a non-success status.
type TransportError struct {
	Op         string // logical operation, e.g. "expand" or a capability id
	StatusCode int    // HTTP status when one was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: transport error: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError reports a response that arrived but lacks an
// expected field or carries it with the wrong type.
type MalformedResponseError struct {
	Op    string
	Field string
	Err   error
}

func (e *MalformedResponseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: malformed response: field %q: %v", e.Op, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// MissingArtifactError reports a response that succeeded at the transport
// level but did not carry the expected payload.
type MissingArtifactError struct {
	Key string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("missing artifact: key %q absent or empty", e.Key)
}

// PersistenceError reports a failed artifact or ledger write.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
