// Package console drives a Windows console screen buffer.
//
// An Adapter owns at most one screen buffer handle and exposes three
// operations on it:
//
//   - CreateScreenBuffer: create a text-mode buffer and make it the active display
//   - ScreenInfo: read the buffer size as 8-bit width/height
//   - WriteOutputCharacter: write text at column 0, row 0
//
// All OS access goes through the Native interface. NewNative returns the
// kernel32 binding on Windows and a binding that fails every call with
// ErrUnsupported elsewhere. Tests supply their own Native.
//
// # Errors
//
// Failures are returned, never raised:
//
//	size, err := adapter.ScreenInfo()
//	switch {
//	case errors.Is(err, console.ErrUninitialized):
//	    // CreateScreenBuffer has not succeeded yet
//	case errors.Is(err, console.ErrSizeOutOfRange):
//	    // buffer is wider or taller than 255 cells in strict mode
//	case errors.Is(err, console.ErrNativeCall):
//	    // the console API reported failure
//	}
//
// Kind maps any of these to a short string for script runtimes.
//
// # Size narrowing
//
// Console dimensions are signed 16-bit. Size carries uint8 values, so
// anything above 255 either fails with a *RangeError (SizeStrict, the
// default) or wraps modulo 256 (SizeTruncate). Geometry always reports the
// full values.
package console
