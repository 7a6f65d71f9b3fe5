// Package errs contains the error kinds shared across the media pipeline.
//
// Errors are first-class values carrying a numeric Code, a context chain
// built by Wrap, and an optional Cause. Intermediate layers never discard
// the original error; they wrap it with the step that failed.
package errs

import "fmt"

// Code identifies the kind of failure.
type Code int

// Error kinds used by the core.
const (
	// CodeParseError covers malformed or unsupported on-wire bytes.
	CodeParseError Code = iota
	// CodeProtocolError covers RTMP/RTCP command violations; closes the connection.
	CodeProtocolError
	// CodeBusy is returned when a second publisher targets an owned stream.
	CodeBusy
	// CodeExceedConnections is returned when the global connection limit is hit.
	CodeExceedConnections
	// CodeThreadInterrupted is returned when a cancellation token fires.
	CodeThreadInterrupted
	// CodeControlRepublish signals a mid-publish command that must restart publish.
	CodeControlRepublish
	// CodeTransient covers timeouts and socket errors on edge-pull; retried after backoff.
	CodeTransient
)

func (c Code) String() string {
	switch c {
	case CodeParseError:
		return "ParseError"
	case CodeProtocolError:
		return "ProtocolError"
	case CodeBusy:
		return "Busy"
	case CodeExceedConnections:
		return "ExceedConnections"
	case CodeThreadInterrupted:
		return "ThreadInterrupted"
	case CodeControlRepublish:
		return "ControlRepublish"
	case CodeTransient:
		return "Transient"
	default:
		return "Unknown"
	}
}

// ParseSubCode further classifies a CodeParseError.
type ParseSubCode int

// Parse sub-codes.
const (
	SubCodeNone ParseSubCode = iota
	SubCodeAvcDecode
	SubCodeHevcDecode
	SubCodeNaluEmpty
	SubCodeHlsDecode
)

func (s ParseSubCode) String() string {
	switch s {
	case SubCodeAvcDecode:
		return "AvcDecode"
	case SubCodeHevcDecode:
		return "HevcDecode"
	case SubCodeNaluEmpty:
		return "NaluEmpty"
	case SubCodeHlsDecode:
		return "HlsDecode"
	default:
		return "None"
	}
}

// Error is the error type returned by every layer of the core.
type Error struct {
	Code    Code
	Sub     ParseSubCode
	Context string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		if e.Sub != SubCodeNone {
			return fmt.Sprintf("%s(%s): %s: %v", e.Code, e.Sub, e.Context, e.Cause)
		}
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Context, e.Cause)
	}
	if e.Sub != SubCodeNone {
		return fmt.Sprintf("%s(%s): %s", e.Code, e.Sub, e.Context)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Context)
}

// Unwrap allows errors.Is / errors.As to see through the chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a bare error with the given code and context.
func New(code Code, context string) *Error {
	return &Error{Code: code, Context: context}
}

// NewParse creates a CodeParseError with a sub-code.
func NewParse(sub ParseSubCode, context string) *Error {
	return &Error{Code: CodeParseError, Sub: sub, Context: context}
}

// Wrap attaches additional context to an existing error, preserving its
// code when the cause is itself an *Error, or defaulting to CodeProtocolError
// when wrapping a plain error at a boundary that doesn't know the kind yet.
func Wrap(err error, context string) *Error {
	if err == nil {
		return nil
	}

	var inner *Error
	if e, ok := err.(*Error); ok {
		inner = e
	}

	if inner != nil {
		return &Error{Code: inner.Code, Sub: inner.Sub, Context: context, Cause: err}
	}

	return &Error{Code: CodeProtocolError, Context: context, Cause: err}
}

// Is lets errors.Is match against an *Error target by Code: it reports
// true when the codes are equal and, unless the target's Sub is
// SubCodeNone, the sub-codes are equal too.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && (t.Sub == SubCodeNone || e.Sub == t.Sub)
}
