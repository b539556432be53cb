// Package pep is the client library's root package: a handle that marshals
// a policy Request to Hessian, transports it over mutual-TLS HTTPS to a
// policy decision point, and unmarshals the Response.
package pep

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a *Error, replacing the original library's
// code-plus-message-fetch model with errors.Is/errors.As.
type ErrorKind int

const (
	ErrMemory ErrorKind = iota
	ErrNullPointer
	ErrListError
	ErrTransport
	ErrTransportPerform
	ErrAuthzRequest
	ErrPreProcessorInit
	ErrPreProcessorRun
	ErrPostProcessorInit
	ErrPostProcessorRun
	ErrOptionInvalid
	ErrMarshalEncoding
	ErrMarshalIO
	ErrUnmarshalEncoding
	ErrUnmarshalIO
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMemory:
		return "memory"
	case ErrNullPointer:
		return "null-pointer"
	case ErrListError:
		return "list-error"
	case ErrTransport:
		return "transport"
	case ErrTransportPerform:
		return "transport-perform"
	case ErrAuthzRequest:
		return "authz-request"
	case ErrPreProcessorInit:
		return "preprocessor-init"
	case ErrPreProcessorRun:
		return "preprocessor-run"
	case ErrPostProcessorInit:
		return "postprocessor-init"
	case ErrPostProcessorRun:
		return "postprocessor-run"
	case ErrOptionInvalid:
		return "option-invalid"
	case ErrMarshalEncoding:
		return "marshal-encoding"
	case ErrMarshalIO:
		return "marshal-io"
	case ErrUnmarshalEncoding:
		return "unmarshal-encoding"
	case ErrUnmarshalIO:
		return "unmarshal-io"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the error type returned by NewClient, the Client methods and
// FileConfig.Options; LoadConfig returns plain wrapped errors instead. It
// carries a Kind from the taxonomy above and, where applicable, the
// underlying cause.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pep: %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("pep: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, &pep.Error{Kind: pep.ErrAuthzRequest}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newErr(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// KindOf returns the ErrorKind of err if it is (or wraps) a *pep.Error, and
// false otherwise.
func KindOf(err error) (ErrorKind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}
