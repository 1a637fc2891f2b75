package app

import (
	"errors"
	"sync"
	"unicode/utf16"

	"github.com/dshills/conscreen/internal/console"
)

const fakeStdOutput console.Handle = 3

// fakeConsole is an in-memory console binding.
type fakeConsole struct {
	mu sync.Mutex

	size      console.Coord
	next      console.Handle
	open      map[console.Handle]bool
	active    console.Handle
	createErr error

	writes []string
}

func newFakeConsole(width, height int16) *fakeConsole {
	return &fakeConsole{
		size: console.Coord{X: width, Y: height},
		next: 10,
		open: make(map[console.Handle]bool),
	}
}

func (f *fakeConsole) CreateScreenBuffer() (console.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return console.InvalidHandle, f.createErr
	}
	f.next++
	f.open[f.next] = true
	return f.next, nil
}

func (f *fakeConsole) SetActiveScreenBuffer(h console.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = h
	return nil
}

func (f *fakeConsole) ScreenBufferInfo(h console.Handle) (console.BufferInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open[h] {
		return console.BufferInfo{}, errors.New("invalid handle")
	}
	return console.BufferInfo{
		Size:   f.size,
		Window: console.Rect{Right: f.size.X - 1, Bottom: f.size.Y - 1},
	}, nil
}

func (f *fakeConsole) SetCursorPosition(console.Handle, console.Coord) error {
	return nil
}

func (f *fakeConsole) WriteOutputCharacter(h console.Handle, units []uint16, _ console.Coord) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open[h] {
		return 0, errors.New("invalid handle")
	}
	f.writes = append(f.writes, string(utf16.Decode(units)))
	return len(units), nil
}

func (f *fakeConsole) ReadOutputCharacter(console.Handle, int, console.Coord) ([]uint16, error) {
	return nil, nil
}

func (f *fakeConsole) CloseHandle(h console.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open[h] {
		return errors.New("invalid handle")
	}
	delete(f.open, h)
	return nil
}

func (f *fakeConsole) StdOutput() (console.Handle, error) {
	return fakeStdOutput, nil
}

func (f *fakeConsole) Writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}

func (f *fakeConsole) OpenBuffers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.open)
}

func (f *fakeConsole) Active() console.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}
