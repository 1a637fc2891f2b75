package console

import (
	"errors"
	"fmt"
)

// Errors for console operations.
var (
	// ErrUninitialized is returned when an operation needs a screen buffer
	// and CreateScreenBuffer has not succeeded yet.
	ErrUninitialized = errors.New("console screen buffer not created")

	// ErrCreateFailed is returned when the OS hands back a null or invalid handle.
	ErrCreateFailed = errors.New("console screen buffer creation failed")

	// ErrNativeCall is matched by every *CallError.
	ErrNativeCall = errors.New("console api call failed")

	// ErrInvalidUTF8 is matched by every *EncodingError.
	ErrInvalidUTF8 = errors.New("text is not valid utf-8")

	// ErrSizeOutOfRange is matched by every *RangeError.
	ErrSizeOutOfRange = errors.New("console size does not fit in 8 bits")

	// ErrUnsupported is returned by the native binding on non-Windows hosts.
	ErrUnsupported = errors.New("windows console api not available on this platform")

	// ErrClosed is returned after Close, until the next CreateScreenBuffer.
	ErrClosed = fmt.Errorf("%w: handle closed", ErrUninitialized)
)

// Error kinds reported to script runtimes.
const (
	KindUninitialized = "uninitialized"
	KindCreate        = "create"
	KindOS            = "os"
	KindEncoding      = "encoding"
	KindRange         = "range"
	KindUnsupported   = "unsupported"
	KindUnknown       = "unknown"
)

// CallError records a failed console API call.
type CallError struct {
	Op  string // Win32 function name
	Err error  // Error reported by the OS
}

func (e *CallError) Error() string {
	if e.Err == nil {
		return e.Op + ": failed"
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the OS error.
func (e *CallError) Unwrap() error {
	return e.Err
}

// Is reports ErrNativeCall as a match.
func (e *CallError) Is(target error) bool {
	return target == ErrNativeCall
}

// EncodingError reports the byte offset of the first invalid UTF-8 sequence.
type EncodingError struct {
	Offset int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("invalid utf-8 at byte %d", e.Offset)
}

// Is reports ErrInvalidUTF8 as a match.
func (e *EncodingError) Is(target error) bool {
	return target == ErrInvalidUTF8
}

// RangeError reports a dimension that does not fit in a uint8.
type RangeError struct {
	Field string
	Value int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("console %s %d out of range 0..255", e.Field, e.Value)
}

// Is reports ErrSizeOutOfRange as a match.
func (e *RangeError) Is(target error) bool {
	return target == ErrSizeOutOfRange
}

// Kind classifies err for callers that cannot use errors.Is, such as Lua
// scripts. It returns the empty string for a nil error.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupported):
		return KindUnsupported
	case errors.Is(err, ErrUninitialized):
		return KindUninitialized
	case errors.Is(err, ErrCreateFailed):
		return KindCreate
	case errors.Is(err, ErrInvalidUTF8):
		return KindEncoding
	case errors.Is(err, ErrSizeOutOfRange):
		return KindRange
	case errors.Is(err, ErrNativeCall):
		return KindOS
	default:
		return KindUnknown
	}
}
