package console

import (
	"errors"
	"fmt"
	"sync"
)

// origin is where every write starts.
var origin = Coord{X: 0, Y: 0}

// Size is the screen buffer size narrowed to 8 bits per axis.
type Size struct {
	Width  uint8 `json:"width"`
	Height uint8 `json:"height"`
}

// Geometry is the screen buffer layout at native width.
type Geometry struct {
	Width   int  `json:"width"`
	Height  int  `json:"height"`
	CursorX int  `json:"cursor_x"`
	CursorY int  `json:"cursor_y"`
	Window  Rect `json:"window"`
}

// SizeMode selects how ScreenInfo narrows dimensions above 255.
type SizeMode int

const (
	// SizeStrict rejects dimensions outside 0..255 with a *RangeError.
	SizeStrict SizeMode = iota
	// SizeTruncate keeps the low 8 bits.
	SizeTruncate
)

// String returns the config name of the mode.
func (m SizeMode) String() string {
	switch m {
	case SizeStrict:
		return "strict"
	case SizeTruncate:
		return "truncate"
	default:
		return "unknown"
	}
}

// ParseSizeMode parses "strict" or "truncate".
func ParseSizeMode(s string) (SizeMode, error) {
	switch s {
	case "strict", "":
		return SizeStrict, nil
	case "truncate":
		return SizeTruncate, nil
	default:
		return SizeStrict, fmt.Errorf("unknown size mode %q (want strict or truncate)", s)
	}
}

// Adapter owns one console screen buffer handle.
// It is safe for concurrent use; calls are serialized.
type Adapter struct {
	mu       sync.Mutex
	native   Native
	handle   Handle
	restore  Handle
	closed   bool
	sizeMode SizeMode
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithSizeMode sets the narrowing policy used by ScreenInfo.
func WithSizeMode(mode SizeMode) Option {
	return func(a *Adapter) {
		a.sizeMode = mode
	}
}

// New creates an Adapter without a screen buffer.
// A nil native uses NewNative.
func New(native Native, opts ...Option) *Adapter {
	if native == nil {
		native = NewNative()
	}
	a := &Adapter{
		native:   native,
		handle:   InvalidHandle,
		restore:  InvalidHandle,
		sizeMode: SizeStrict,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SizeMode returns the narrowing policy.
func (a *Adapter) SizeMode() SizeMode {
	return a.sizeMode
}

// Active reports whether a screen buffer has been created.
func (a *Adapter) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.handle.Valid()
}

// CreateScreenBuffer creates a text-mode screen buffer, makes it the
// active display and stores it. The previously stored buffer is closed.
// On failure the previous buffer stays in place.
func (a *Adapter) CreateScreenBuffer() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	h, err := a.native.CreateScreenBuffer()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}
	if !h.Valid() {
		return ErrCreateFailed
	}

	if !a.restore.Valid() {
		// Without a standard output buffer there is nothing to restore.
		if std, err := a.native.StdOutput(); err == nil {
			a.restore = std
		}
	}

	if err := a.native.SetActiveScreenBuffer(h); err != nil {
		_ = a.native.CloseHandle(h)
		return err
	}

	prev := a.handle
	a.handle = h
	a.closed = false
	if prev.Valid() {
		// The old buffer is no longer displayed; a failed close only leaks it.
		_ = a.native.CloseHandle(prev)
	}
	return nil
}

// ScreenInfo returns the current buffer size narrowed per the SizeMode.
func (a *Adapter) ScreenInfo() (Size, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.checkHandle(); err != nil {
		return Size{}, err
	}

	info, err := a.native.ScreenBufferInfo(a.handle)
	if err != nil {
		return Size{}, err
	}

	w, err := a.narrow("width", info.Size.X)
	if err != nil {
		return Size{}, err
	}
	h, err := a.narrow("height", info.Size.Y)
	if err != nil {
		return Size{}, err
	}
	return Size{Width: w, Height: h}, nil
}

// checkHandle must be called with mu held.
func (a *Adapter) checkHandle() error {
	if a.handle.Valid() {
		return nil
	}
	if a.closed {
		return ErrClosed
	}
	return ErrUninitialized
}

func (a *Adapter) narrow(field string, v int16) (uint8, error) {
	if a.sizeMode == SizeTruncate {
		return uint8(v), nil
	}
	if v < 0 || v > 255 {
		return 0, &RangeError{Field: field, Value: int(v)}
	}
	return uint8(v), nil
}

// Geometry returns the buffer size, cursor and window at full width.
func (a *Adapter) Geometry() (Geometry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.checkHandle(); err != nil {
		return Geometry{}, err
	}

	info, err := a.native.ScreenBufferInfo(a.handle)
	if err != nil {
		return Geometry{}, err
	}
	return Geometry{
		Width:   int(info.Size.X),
		Height:  int(info.Size.Y),
		CursorX: int(info.Cursor.X),
		CursorY: int(info.Cursor.Y),
		Window:  info.Window,
	}, nil
}

// WriteOutputCharacter moves the cursor to the origin and writes text
// there as UTF-16. It returns text unchanged. Callers redraw whole frames;
// nothing is diffed or appended.
func (a *Adapter) WriteOutputCharacter(text string) (string, error) {
	units, err := EncodeUTF16(text)
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.checkHandle(); err != nil {
		return "", err
	}

	if err := a.native.SetCursorPosition(a.handle, origin); err != nil {
		return "", err
	}
	if _, err := a.native.WriteOutputCharacter(a.handle, units, origin); err != nil {
		return "", err
	}
	return text, nil
}

// ReadOutputCharacter reads n cells starting at the origin.
func (a *Adapter) ReadOutputCharacter(n int) (string, error) {
	if n < 0 {
		return "", fmt.Errorf("read length %d: must not be negative", n)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.checkHandle(); err != nil {
		return "", err
	}

	units, err := a.native.ReadOutputCharacter(a.handle, n, origin)
	if err != nil {
		return "", err
	}
	return DecodeUTF16(units), nil
}

// Close reactivates the standard output buffer and releases the stored
// buffer. Operations fail with ErrClosed until the next
// CreateScreenBuffer. Closing without a buffer is a no-op.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.handle.Valid() {
		return nil
	}
	h := a.handle
	a.handle = InvalidHandle
	a.closed = true

	var restoreErr error
	if a.restore.Valid() {
		restoreErr = a.native.SetActiveScreenBuffer(a.restore)
	}
	return errors.Join(restoreErr, a.native.CloseHandle(h))
}
