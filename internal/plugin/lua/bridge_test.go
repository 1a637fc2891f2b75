package lua

import (
	"context"
	"testing"

	glua "github.com/yuin/gopher-lua"
)

func TestBridgeToGoValue(t *testing.T) {
	L := glua.NewState()
	defer L.Close()
	b := NewBridge(L)

	tests := []struct {
		name string
		in   glua.LValue
		want any
	}{
		{"nil", glua.LNil, nil},
		{"bool", glua.LTrue, true},
		{"int", glua.LNumber(42), int64(42)},
		{"float", glua.LNumber(1.5), 1.5},
		{"string", glua.LString("hi"), "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.ToGoValue(tt.in); got != tt.want {
				t.Errorf("ToGoValue() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestBridgeToGoValueTable(t *testing.T) {
	L := glua.NewState()
	defer L.Close()
	b := NewBridge(L)

	if err := L.DoString(`arr = {1, 2, 3}; obj = {width = 80, name = "x"}; mixed = {1, key = "v"}`); err != nil {
		t.Fatal(err)
	}

	arr, ok := b.ToGoValue(L.GetGlobal("arr")).([]any)
	if !ok || len(arr) != 3 || arr[2] != int64(3) {
		t.Errorf("arr = %#v", arr)
	}

	obj, ok := b.ToGoValue(L.GetGlobal("obj")).(map[string]any)
	if !ok || obj["width"] != int64(80) || obj["name"] != "x" {
		t.Errorf("obj = %#v", obj)
	}

	if _, ok := b.ToGoValue(L.GetGlobal("mixed")).(map[string]any); !ok {
		t.Error("mixed table should convert to a map")
	}
}

func TestBridgeCircularTable(t *testing.T) {
	L := glua.NewState()
	defer L.Close()
	b := NewBridge(L)

	if err := L.DoString(`c = {}; c.self = c`); err != nil {
		t.Fatal(err)
	}
	m, ok := b.ToGoValue(L.GetGlobal("c")).(map[string]any)
	if !ok {
		t.Fatal("circular table not converted")
	}
	if m["self"] != nil {
		t.Errorf("self = %#v, want nil", m["self"])
	}
}

type bridgeSize struct {
	Width  uint8 `json:"width"`
	Height uint8 `json:"height"`
	Hidden int   `json:"-"`
	Plain  string
	note   string
}

func TestBridgeToLuaValueStruct(t *testing.T) {
	L := glua.NewState()
	defer L.Close()
	b := NewBridge(L)

	tbl, ok := b.ToLuaValue(bridgeSize{Width: 80, Height: 25, Hidden: 1, Plain: "p", note: "n"}).(*glua.LTable)
	if !ok {
		t.Fatal("struct did not convert to a table")
	}
	if tbl.RawGetString("width") != glua.LNumber(80) || tbl.RawGetString("height") != glua.LNumber(25) {
		t.Errorf("width/height = %v/%v", tbl.RawGetString("width"), tbl.RawGetString("height"))
	}
	if tbl.RawGetString("Hidden") != glua.LNil || tbl.RawGetString("note") != glua.LNil {
		t.Error("skipped fields present")
	}
	if tbl.RawGetString("Plain") != glua.LString("p") {
		t.Errorf("Plain = %v", tbl.RawGetString("Plain"))
	}

	if b.ToLuaValue((*bridgeSize)(nil)) != glua.LNil {
		t.Error("nil pointer should convert to LNil")
	}
}

func TestBridgeRoundTrip(t *testing.T) {
	state, _ := NewState()
	defer state.Close()
	b := NewBridge(state.LuaState())

	config := map[string]any{
		"frames": 3,
		"tags":   []any{"a", "b"},
		"nested": map[string]any{"on": true},
	}
	state.SetGlobal("config", b.ToLuaValue(config))
	if err := state.DoString(context.Background(), `
		assert(config.frames == 3)
		assert(config.tags[2] == "b")
		assert(config.nested.on == true)
	`); err != nil {
		t.Errorf("config not visible to Lua: %v", err)
	}

	back := b.ToGoValue(state.GetGlobal("config")).(map[string]any)
	if back["frames"] != int64(3) {
		t.Errorf("frames = %#v", back["frames"])
	}
}
