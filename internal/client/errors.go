package client

import (
	"errors"
	"fmt"
)

// ValidationError is raised locally before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ServerError is an envelope with success=false. Message is the server's text verbatim.
type ServerError struct {
	Status  int
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// TransportError covers failures to reach the server or read its reply, and
// local side effects such as clipboard writes.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Message renders err for a user-facing notification. Server messages pass
// through untouched, transport failures get a generic prefix.
func Message(err error) string {
	var verr *ValidationError
	var serr *ServerError
	var terr *TransportError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.As(err, &serr):
		return serr.Message
	case errors.As(err, &terr):
		return "request failed: " + terr.Err.Error()
	case err == nil:
		return ""
	default:
		return err.Error()
	}
}
