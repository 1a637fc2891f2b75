//go:build windows

package console

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

const consoleTextmodeBuffer = 1 // CONSOLE_TEXTMODE_BUFFER

var (
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procCreateConsoleScreenBuffer    = kernel32.NewProc("CreateConsoleScreenBuffer")
	procSetConsoleActiveScreenBuffer = kernel32.NewProc("SetConsoleActiveScreenBuffer")
	procWriteConsoleOutputCharacterW = kernel32.NewProc("WriteConsoleOutputCharacterW")
	procReadConsoleOutputCharacterW  = kernel32.NewProc("ReadConsoleOutputCharacterW")
)

type kernel32Native struct{}

// NewNative returns the kernel32 console binding.
func NewNative() Native {
	return kernel32Native{}
}

// coordArg packs a COORD for by-value passing.
func coordArg(c Coord) uintptr {
	return uintptr(uint32(uint16(c.X)) | uint32(uint16(c.Y))<<16)
}

func (kernel32Native) CreateScreenBuffer() (Handle, error) {
	r1, _, err := procCreateConsoleScreenBuffer.Call(
		uintptr(windows.GENERIC_READ|windows.GENERIC_WRITE),
		uintptr(windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE),
		0,
		consoleTextmodeBuffer,
		0,
	)
	h := Handle(r1)
	if !h.Valid() {
		return h, &CallError{Op: "CreateConsoleScreenBuffer", Err: err}
	}
	return h, nil
}

func (kernel32Native) SetActiveScreenBuffer(h Handle) error {
	r1, _, err := procSetConsoleActiveScreenBuffer.Call(uintptr(h))
	if r1 == 0 {
		return &CallError{Op: "SetConsoleActiveScreenBuffer", Err: err}
	}
	return nil
}

func (kernel32Native) ScreenBufferInfo(h Handle) (BufferInfo, error) {
	var info windows.ConsoleScreenBufferInfo
	if err := windows.GetConsoleScreenBufferInfo(windows.Handle(h), &info); err != nil {
		return BufferInfo{}, &CallError{Op: "GetConsoleScreenBufferInfo", Err: err}
	}
	return BufferInfo{
		Size:          Coord{X: info.Size.X, Y: info.Size.Y},
		Cursor:        Coord{X: info.CursorPosition.X, Y: info.CursorPosition.Y},
		Attributes:    info.Attributes,
		Window:        Rect{Left: info.Window.Left, Top: info.Window.Top, Right: info.Window.Right, Bottom: info.Window.Bottom},
		MaxWindowSize: Coord{X: info.MaximumWindowSize.X, Y: info.MaximumWindowSize.Y},
	}, nil
}

func (kernel32Native) SetCursorPosition(h Handle, pos Coord) error {
	if err := windows.SetConsoleCursorPosition(windows.Handle(h), windows.Coord{X: pos.X, Y: pos.Y}); err != nil {
		return &CallError{Op: "SetConsoleCursorPosition", Err: err}
	}
	return nil
}

func (kernel32Native) WriteOutputCharacter(h Handle, units []uint16, at Coord) (int, error) {
	if len(units) == 0 {
		return 0, nil
	}
	var written uint32
	r1, _, err := procWriteConsoleOutputCharacterW.Call(
		uintptr(h),
		uintptr(unsafe.Pointer(&units[0])),
		uintptr(len(units)),
		coordArg(at),
		uintptr(unsafe.Pointer(&written)),
	)
	if r1 == 0 {
		return int(written), &CallError{Op: "WriteConsoleOutputCharacterW", Err: err}
	}
	return int(written), nil
}

func (kernel32Native) ReadOutputCharacter(h Handle, n int, at Coord) ([]uint16, error) {
	if n <= 0 {
		return []uint16{}, nil
	}
	buf := make([]uint16, n)
	var read uint32
	r1, _, err := procReadConsoleOutputCharacterW.Call(
		uintptr(h),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(n),
		coordArg(at),
		uintptr(unsafe.Pointer(&read)),
	)
	if r1 == 0 {
		return nil, &CallError{Op: "ReadConsoleOutputCharacterW", Err: err}
	}
	return buf[:read], nil
}

func (kernel32Native) CloseHandle(h Handle) error {
	if err := windows.CloseHandle(windows.Handle(h)); err != nil {
		return &CallError{Op: "CloseHandle", Err: err}
	}
	return nil
}

func (kernel32Native) StdOutput() (Handle, error) {
	h, err := windows.GetStdHandle(windows.STD_OUTPUT_HANDLE)
	if err != nil {
		return InvalidHandle, &CallError{Op: "GetStdHandle", Err: err}
	}
	return Handle(h), nil
}
