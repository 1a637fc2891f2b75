package console

import (
	"errors"
	"sync"
	"testing"
	"unicode/utf16"
)

func TestNewAdapterInactive(t *testing.T) {
	a := New(newFakeNative(80, 25))

	if a.Active() {
		t.Error("new adapter reports an active buffer")
	}
	if a.SizeMode() != SizeStrict {
		t.Errorf("SizeMode() = %v, want strict", a.SizeMode())
	}
}

func TestOperationsBeforeCreate(t *testing.T) {
	a := New(newFakeNative(80, 25))

	if _, err := a.ScreenInfo(); !errors.Is(err, ErrUninitialized) {
		t.Errorf("ScreenInfo() error = %v, want ErrUninitialized", err)
	}
	if _, err := a.WriteOutputCharacter("hi"); !errors.Is(err, ErrUninitialized) {
		t.Errorf("WriteOutputCharacter() error = %v, want ErrUninitialized", err)
	}
	if _, err := a.Geometry(); !errors.Is(err, ErrUninitialized) {
		t.Errorf("Geometry() error = %v, want ErrUninitialized", err)
	}
	if _, err := a.ReadOutputCharacter(2); !errors.Is(err, ErrUninitialized) {
		t.Errorf("ReadOutputCharacter() error = %v, want ErrUninitialized", err)
	}
}

func TestCreateScreenBufferActivates(t *testing.T) {
	native := newFakeNative(80, 25)
	a := New(native)

	if err := a.CreateScreenBuffer(); err != nil {
		t.Fatalf("CreateScreenBuffer() error = %v", err)
	}
	if !a.Active() {
		t.Error("Active() = false after create")
	}
	if native.active != a.handle {
		t.Errorf("active buffer = %v, want %v", native.active, a.handle)
	}
}

func TestCreateScreenBufferReplacesAndCloses(t *testing.T) {
	native := newFakeNative(80, 25)
	a := New(native)

	if err := a.CreateScreenBuffer(); err != nil {
		t.Fatalf("first create error = %v", err)
	}
	first := a.handle

	if err := a.CreateScreenBuffer(); err != nil {
		t.Fatalf("second create error = %v", err)
	}
	if a.handle == first {
		t.Fatal("handle not replaced")
	}
	if len(native.closed) != 1 || native.closed[0] != first {
		t.Errorf("closed = %v, want [%v]", native.closed, first)
	}
}

func TestCreateScreenBufferInvalidHandle(t *testing.T) {
	for _, h := range []Handle{InvalidHandle, 0} {
		native := newFakeNative(80, 25)
		native.createHandle = h
		native.overrideHandle = true
		a := New(native)

		err := a.CreateScreenBuffer()
		if !errors.Is(err, ErrCreateFailed) {
			t.Errorf("handle %v: error = %v, want ErrCreateFailed", h, err)
		}
		if Kind(err) != KindCreate {
			t.Errorf("handle %v: Kind = %q, want %q", h, Kind(err), KindCreate)
		}
		if a.Active() {
			t.Errorf("handle %v: adapter active after failed create", h)
		}
	}
}

func TestCreateScreenBufferNativeError(t *testing.T) {
	native := newFakeNative(80, 25)
	native.createErr = &CallError{Op: "CreateConsoleScreenBuffer", Err: errors.New("access denied")}
	a := New(native)

	err := a.CreateScreenBuffer()
	if !errors.Is(err, ErrCreateFailed) {
		t.Errorf("error = %v, want ErrCreateFailed", err)
	}
	if !errors.Is(err, ErrNativeCall) {
		t.Errorf("error = %v, want ErrNativeCall in chain", err)
	}
}

func TestCreateScreenBufferActivateFailureKeepsPrevious(t *testing.T) {
	native := newFakeNative(80, 25)
	a := New(native)

	if err := a.CreateScreenBuffer(); err != nil {
		t.Fatalf("create error = %v", err)
	}
	prev := a.handle

	native.activateErr = &CallError{Op: "SetConsoleActiveScreenBuffer", Err: errors.New("boom")}
	if err := a.CreateScreenBuffer(); !errors.Is(err, ErrNativeCall) {
		t.Fatalf("error = %v, want ErrNativeCall", err)
	}
	if a.handle != prev {
		t.Errorf("handle = %v, want previous %v", a.handle, prev)
	}
	if len(native.closed) != 1 || native.closed[0] == prev {
		t.Errorf("closed = %v, want only the new handle", native.closed)
	}
}

func TestScreenInfo(t *testing.T) {
	a := New(newFakeNative(120, 40))
	if err := a.CreateScreenBuffer(); err != nil {
		t.Fatalf("create error = %v", err)
	}

	size, err := a.ScreenInfo()
	if err != nil {
		t.Fatalf("ScreenInfo() error = %v", err)
	}
	if size != (Size{Width: 120, Height: 40}) {
		t.Errorf("ScreenInfo() = %+v, want 120x40", size)
	}
}

func TestScreenInfoReadsNewestBuffer(t *testing.T) {
	native := newFakeNative(80, 25)
	a := New(native)
	if err := a.CreateScreenBuffer(); err != nil {
		t.Fatalf("create error = %v", err)
	}

	native.size = Coord{X: 100, Y: 30}
	if err := a.CreateScreenBuffer(); err != nil {
		t.Fatalf("create error = %v", err)
	}

	size, err := a.ScreenInfo()
	if err != nil {
		t.Fatalf("ScreenInfo() error = %v", err)
	}
	if size != (Size{Width: 100, Height: 30}) {
		t.Errorf("ScreenInfo() = %+v, want the new 100x30 buffer", size)
	}
}

func TestScreenInfoNarrowing(t *testing.T) {
	tests := []struct {
		name    string
		mode    SizeMode
		size    Coord
		want    Size
		wantErr bool
	}{
		{name: "strict fits", mode: SizeStrict, size: Coord{255, 255}, want: Size{255, 255}},
		{name: "strict zero", mode: SizeStrict, size: Coord{0, 0}, want: Size{0, 0}},
		{name: "strict wide", mode: SizeStrict, size: Coord{256, 10}, wantErr: true},
		{name: "strict tall", mode: SizeStrict, size: Coord{80, 9001}, wantErr: true},
		{name: "strict negative", mode: SizeStrict, size: Coord{-1, 10}, wantErr: true},
		{name: "truncate fits", mode: SizeTruncate, size: Coord{200, 50}, want: Size{200, 50}},
		{name: "truncate wraps", mode: SizeTruncate, size: Coord{300, 9001}, want: Size{44, 41}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			native := newFakeNative(10, 10)
			a := New(native, WithSizeMode(tt.mode))
			if err := a.CreateScreenBuffer(); err != nil {
				t.Fatalf("create error = %v", err)
			}
			native.setBufferSize(a.handle, tt.size)

			got, err := a.ScreenInfo()
			if tt.wantErr {
				if !errors.Is(err, ErrSizeOutOfRange) {
					t.Fatalf("error = %v, want ErrSizeOutOfRange", err)
				}
				var rangeErr *RangeError
				if !errors.As(err, &rangeErr) {
					t.Fatalf("error %T is not *RangeError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ScreenInfo() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestScreenInfoNativeError(t *testing.T) {
	native := newFakeNative(80, 25)
	a := New(native)
	if err := a.CreateScreenBuffer(); err != nil {
		t.Fatalf("create error = %v", err)
	}
	native.infoErr = &CallError{Op: "GetConsoleScreenBufferInfo", Err: errors.New("no console")}

	_, err := a.ScreenInfo()
	if Kind(err) != KindOS {
		t.Errorf("Kind(%v) = %q, want %q", err, Kind(err), KindOS)
	}
}

func TestGeometry(t *testing.T) {
	native := newFakeNative(10, 10)
	a := New(native)
	if err := a.CreateScreenBuffer(); err != nil {
		t.Fatalf("create error = %v", err)
	}
	native.setBufferSize(a.handle, Coord{X: 120, Y: 9001})

	g, err := a.Geometry()
	if err != nil {
		t.Fatalf("Geometry() error = %v", err)
	}
	if g.Width != 120 || g.Height != 9001 {
		t.Errorf("Geometry() = %dx%d, want 120x9001", g.Width, g.Height)
	}
}

func TestWriteOutputCharacter(t *testing.T) {
	native := newFakeNative(80, 25)
	a := New(native)
	if err := a.CreateScreenBuffer(); err != nil {
		t.Fatalf("create error = %v", err)
	}
	native.buffers[a.handle].cursor = Coord{X: 7, Y: 3}

	got, err := a.WriteOutputCharacter("OK")
	if err != nil {
		t.Fatalf("WriteOutputCharacter() error = %v", err)
	}
	if got != "OK" {
		t.Errorf("WriteOutputCharacter() = %q, want echoed %q", got, "OK")
	}
	if c := native.buffers[a.handle].cursor; c != origin {
		t.Errorf("cursor = %+v, want origin", c)
	}

	read, err := a.ReadOutputCharacter(2)
	if err != nil {
		t.Fatalf("ReadOutputCharacter() error = %v", err)
	}
	if read != "OK" {
		t.Errorf("first two cells = %q, want %q", read, "OK")
	}
}

func TestWriteOutputCharacterAlwaysAtOrigin(t *testing.T) {
	native := newFakeNative(80, 25)
	a := New(native)
	if err := a.CreateScreenBuffer(); err != nil {
		t.Fatalf("create error = %v", err)
	}

	for _, s := range []string{"first frame", "second"} {
		if _, err := a.WriteOutputCharacter(s); err != nil {
			t.Fatalf("write %q error = %v", s, err)
		}
	}

	for i, w := range native.writes {
		if w.at != origin {
			t.Errorf("write %d at %+v, want origin", i, w.at)
		}
	}
	read, _ := a.ReadOutputCharacter(11)
	if read != "secondframe" {
		t.Errorf("cells = %q, want overwrite at origin", read)
	}
}

func TestWriteOutputCharacterUTF16Units(t *testing.T) {
	inputs := []string{
		"",
		"plain ascii",
		"█▓▒░ shade",
		"↓↘→↗↑↖←↙",
		"emoji 😀 pair",
		"héllo wörld",
	}

	for _, in := range inputs {
		native := newFakeNative(80, 25)
		a := New(native)
		if err := a.CreateScreenBuffer(); err != nil {
			t.Fatalf("create error = %v", err)
		}
		if _, err := a.WriteOutputCharacter(in); err != nil {
			t.Fatalf("write %q error = %v", in, err)
		}

		want := utf16.Encode([]rune(in))
		if len(native.writes) != 1 {
			t.Fatalf("%q: %d writes, want 1", in, len(native.writes))
		}
		got := native.writes[0].units
		if len(got) != len(want) {
			t.Fatalf("%q: %d units, want %d", in, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%q: unit %d = %#x, want %#x", in, i, got[i], want[i])
			}
		}
	}
}

func TestWriteOutputCharacterInvalidUTF8(t *testing.T) {
	native := newFakeNative(80, 25)
	a := New(native)
	if err := a.CreateScreenBuffer(); err != nil {
		t.Fatalf("create error = %v", err)
	}

	_, err := a.WriteOutputCharacter("ok\xffbad")
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("error = %v, want ErrInvalidUTF8", err)
	}
	var encErr *EncodingError
	if !errors.As(err, &encErr) || encErr.Offset != 2 {
		t.Errorf("error = %#v, want offset 2", err)
	}
	if len(native.writes) != 0 {
		t.Error("invalid text reached the console")
	}
}

func TestWriteOutputCharacterNativeErrors(t *testing.T) {
	t.Run("cursor", func(t *testing.T) {
		native := newFakeNative(80, 25)
		a := New(native)
		_ = a.CreateScreenBuffer()
		native.cursorErr = &CallError{Op: "SetConsoleCursorPosition", Err: errors.New("denied")}

		if _, err := a.WriteOutputCharacter("x"); !errors.Is(err, ErrNativeCall) {
			t.Errorf("error = %v, want ErrNativeCall", err)
		}
		if len(native.writes) != 0 {
			t.Error("write issued after cursor failure")
		}
	})

	t.Run("write", func(t *testing.T) {
		native := newFakeNative(80, 25)
		a := New(native)
		_ = a.CreateScreenBuffer()
		native.writeErr = &CallError{Op: "WriteConsoleOutputCharacterW", Err: errors.New("denied")}

		if _, err := a.WriteOutputCharacter("x"); Kind(err) != KindOS {
			t.Errorf("Kind(%v) = %q, want os", err, Kind(err))
		}
	})
}

func TestClose(t *testing.T) {
	native := newFakeNative(80, 25)
	a := New(native)

	if err := a.Close(); err != nil {
		t.Errorf("Close() without buffer error = %v", err)
	}
	if err := a.CreateScreenBuffer(); err != nil {
		t.Fatalf("create error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if a.Active() {
		t.Error("Active() = true after Close")
	}

	_, err := a.ScreenInfo()
	if !errors.Is(err, ErrClosed) || !errors.Is(err, ErrUninitialized) {
		t.Errorf("ScreenInfo() after Close error = %v, want ErrClosed", err)
	}

	if err := a.CreateScreenBuffer(); err != nil {
		t.Fatalf("create after close error = %v", err)
	}
	if _, err := a.ScreenInfo(); err != nil {
		t.Errorf("ScreenInfo() after re-create error = %v", err)
	}
}

func TestCloseRestoresStdOutput(t *testing.T) {
	native := newFakeNative(80, 25)
	a := New(native)

	if err := a.CreateScreenBuffer(); err != nil {
		t.Fatalf("create error = %v", err)
	}
	created := native.active
	if created == fakeStdOutput {
		t.Fatal("created buffer should be active")
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if native.active != fakeStdOutput {
		t.Errorf("active after Close = %v, want standard output %v", native.active, fakeStdOutput)
	}
	if len(native.closed) != 1 || native.closed[0] != created {
		t.Errorf("closed = %v, want [%v]", native.closed, created)
	}
}

func TestCloseWithoutStdOutput(t *testing.T) {
	native := newFakeNative(80, 25)
	native.stdErr = &CallError{Op: "GetStdHandle", Err: errors.New("no console")}
	a := New(native)

	if err := a.CreateScreenBuffer(); err != nil {
		t.Fatalf("create error = %v", err)
	}
	created := native.active

	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if native.active != created {
		t.Errorf("active after Close = %v, want unchanged %v", native.active, created)
	}
}

func TestConcurrentCreateAndWrite(t *testing.T) {
	native := newFakeNative(80, 25)
	a := New(native)
	if err := a.CreateScreenBuffer(); err != nil {
		t.Fatalf("create error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if err := a.CreateScreenBuffer(); err != nil {
					t.Errorf("create error = %v", err)
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := a.WriteOutputCharacter("frame"); err != nil {
					t.Errorf("write error = %v", err)
					return
				}
				if _, err := a.ScreenInfo(); err != nil {
					t.Errorf("info error = %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestParseSizeMode(t *testing.T) {
	tests := []struct {
		in      string
		want    SizeMode
		wantErr bool
	}{
		{"strict", SizeStrict, false},
		{"", SizeStrict, false},
		{"truncate", SizeTruncate, false},
		{"wrap", SizeStrict, true},
	}
	for _, tt := range tests {
		got, err := ParseSizeMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSizeMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseSizeMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
