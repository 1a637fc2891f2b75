package console

import (
	"errors"
	"sync"
)

// fakeNative is an in-memory console for tests.
type fakeNative struct {
	mu sync.Mutex

	next    Handle
	buffers map[Handle]*fakeBuffer
	active  Handle
	closed  []Handle

	// Behavior overrides
	createHandle   Handle // returned instead of a fresh handle when overrideHandle is set
	overrideHandle bool
	createErr      error
	activateErr    error
	infoErr        error
	cursorErr      error
	writeErr       error
	stdErr         error
	size           Coord

	// Tracking
	writes []fakeWrite
}

type fakeBuffer struct {
	size   Coord
	cursor Coord
	cells  []uint16
}

type fakeWrite struct {
	handle Handle
	units  []uint16
	at     Coord
}

func newFakeNative(width, height int16) *fakeNative {
	return &fakeNative{
		next:    100,
		buffers: make(map[Handle]*fakeBuffer),
		size:    Coord{X: width, Y: height},
	}
}

func (f *fakeNative) CreateScreenBuffer() (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return InvalidHandle, f.createErr
	}
	if f.overrideHandle {
		return f.createHandle, nil
	}
	f.next++
	h := f.next
	f.buffers[h] = &fakeBuffer{
		size:  f.size,
		cells: make([]uint16, int(f.size.X)*int(f.size.Y)),
	}
	return h, nil
}

func (f *fakeNative) SetActiveScreenBuffer(h Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.activateErr != nil {
		return f.activateErr
	}
	f.active = h
	return nil
}

func (f *fakeNative) buffer(h Handle) (*fakeBuffer, error) {
	b, ok := f.buffers[h]
	if !ok {
		return nil, &CallError{Op: "fake", Err: errors.New("invalid handle")}
	}
	return b, nil
}

func (f *fakeNative) ScreenBufferInfo(h Handle) (BufferInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.infoErr != nil {
		return BufferInfo{}, f.infoErr
	}
	b, err := f.buffer(h)
	if err != nil {
		return BufferInfo{}, err
	}
	return BufferInfo{
		Size:   b.size,
		Cursor: b.cursor,
		Window: Rect{Right: b.size.X - 1, Bottom: b.size.Y - 1},
	}, nil
}

func (f *fakeNative) SetCursorPosition(h Handle, pos Coord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cursorErr != nil {
		return f.cursorErr
	}
	b, err := f.buffer(h)
	if err != nil {
		return err
	}
	b.cursor = pos
	return nil
}

func (f *fakeNative) WriteOutputCharacter(h Handle, units []uint16, at Coord) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	b, err := f.buffer(h)
	if err != nil {
		return 0, err
	}
	f.writes = append(f.writes, fakeWrite{handle: h, units: append([]uint16(nil), units...), at: at})
	start := int(at.Y)*int(b.size.X) + int(at.X)
	n := copy(b.cells[start:], units)
	return n, nil
}

func (f *fakeNative) ReadOutputCharacter(h Handle, n int, at Coord) ([]uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := f.buffer(h)
	if err != nil {
		return nil, err
	}
	start := int(at.Y)*int(b.size.X) + int(at.X)
	end := start + n
	if end > len(b.cells) {
		end = len(b.cells)
	}
	return append([]uint16(nil), b.cells[start:end]...), nil
}

func (f *fakeNative) CloseHandle(h Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.buffers[h]; !ok {
		return &CallError{Op: "CloseHandle", Err: errors.New("invalid handle")}
	}
	delete(f.buffers, h)
	f.closed = append(f.closed, h)
	return nil
}

// fakeStdOutput is the handle the fake reports for standard output.
const fakeStdOutput Handle = 7

func (f *fakeNative) StdOutput() (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stdErr != nil {
		return InvalidHandle, f.stdErr
	}
	return fakeStdOutput, nil
}

func (f *fakeNative) setBufferSize(h Handle, size Coord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buffers[h].size = size
}
