package console

// Handle identifies an OS console screen buffer.
type Handle uintptr

// InvalidHandle is INVALID_HANDLE_VALUE.
const InvalidHandle = ^Handle(0)

// Valid reports whether h can be used for console calls.
func (h Handle) Valid() bool {
	return h != 0 && h != InvalidHandle
}

// Coord is a console cell coordinate (COORD).
type Coord struct {
	X, Y int16
}

// Rect is an inclusive console rectangle (SMALL_RECT).
type Rect struct {
	Left   int16 `json:"left"`
	Top    int16 `json:"top"`
	Right  int16 `json:"right"`
	Bottom int16 `json:"bottom"`
}

// BufferInfo mirrors CONSOLE_SCREEN_BUFFER_INFO.
type BufferInfo struct {
	Size          Coord
	Cursor        Coord
	Attributes    uint16
	Window        Rect
	MaxWindowSize Coord
}

// Native is the set of console API calls the Adapter depends on.
// Implementations report failures as errors and never panic.
type Native interface {
	// CreateScreenBuffer calls CreateConsoleScreenBuffer for a text-mode buffer.
	// It may return an invalid handle with a nil error; the Adapter checks.
	CreateScreenBuffer() (Handle, error)

	// SetActiveScreenBuffer makes h the displayed buffer.
	SetActiveScreenBuffer(h Handle) error

	// ScreenBufferInfo calls GetConsoleScreenBufferInfo.
	ScreenBufferInfo(h Handle) (BufferInfo, error)

	// SetCursorPosition calls SetConsoleCursorPosition.
	SetCursorPosition(h Handle, pos Coord) error

	// WriteOutputCharacter calls WriteConsoleOutputCharacterW and returns
	// the number of code units written.
	WriteOutputCharacter(h Handle, units []uint16, at Coord) (int, error)

	// ReadOutputCharacter calls ReadConsoleOutputCharacterW for n cells.
	ReadOutputCharacter(h Handle, n int, at Coord) ([]uint16, error)

	// CloseHandle releases h.
	CloseHandle(h Handle) error

	// StdOutput returns the process's standard output buffer, which the
	// Adapter reactivates on Close.
	StdOutput() (Handle, error)
}
