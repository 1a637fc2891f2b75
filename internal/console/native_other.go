//go:build !windows

package console

type unsupportedNative struct{}

// NewNative returns a binding whose every call fails with ErrUnsupported.
func NewNative() Native {
	return unsupportedNative{}
}

func unsupported(op string) error {
	return &CallError{Op: op, Err: ErrUnsupported}
}

func (unsupportedNative) CreateScreenBuffer() (Handle, error) {
	return InvalidHandle, unsupported("CreateConsoleScreenBuffer")
}

func (unsupportedNative) SetActiveScreenBuffer(Handle) error {
	return unsupported("SetConsoleActiveScreenBuffer")
}

func (unsupportedNative) ScreenBufferInfo(Handle) (BufferInfo, error) {
	return BufferInfo{}, unsupported("GetConsoleScreenBufferInfo")
}

func (unsupportedNative) SetCursorPosition(Handle, Coord) error {
	return unsupported("SetConsoleCursorPosition")
}

func (unsupportedNative) WriteOutputCharacter(Handle, []uint16, Coord) (int, error) {
	return 0, unsupported("WriteConsoleOutputCharacterW")
}

func (unsupportedNative) ReadOutputCharacter(Handle, int, Coord) ([]uint16, error) {
	return nil, unsupported("ReadConsoleOutputCharacterW")
}

func (unsupportedNative) CloseHandle(Handle) error {
	return unsupported("CloseHandle")
}

func (unsupportedNative) StdOutput() (Handle, error) {
	return InvalidHandle, unsupported("GetStdHandle")
}
