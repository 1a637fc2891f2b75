package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if len(loader.Paths()) == 0 {
		t.Error("NewLoader() should have default paths")
	}
}

func TestNewLoaderWithPaths(t *testing.T) {
	loader := NewLoader(WithPaths("/custom/path1", "/custom/path2"))

	paths := loader.Paths()
	if len(paths) != 2 || paths[0] != "/custom/path1" {
		t.Errorf("Paths() = %v", paths)
	}
}

func TestLoaderDiscoverEmpty(t *testing.T) {
	loader := NewLoader(WithPaths(t.TempDir(), filepath.Join(t.TempDir(), "missing")))

	scripts, err := loader.Discover()
	if err != nil {
		t.Errorf("Discover() error = %v", err)
	}
	if len(scripts) != 0 {
		t.Errorf("Discover() found %d scripts in empty dir", len(scripts))
	}
}

func TestLoaderDiscover(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()

	mustWrite(t, filepath.Join(first, "plasma.lua"), "-- plasma")
	mustWrite(t, filepath.Join(first, "maze", "init.lua"), "-- maze")
	mustWrite(t, filepath.Join(first, "empty", "README"), "no entry point")
	mustWrite(t, filepath.Join(first, "notes.txt"), "ignored")
	mustWrite(t, filepath.Join(second, "plasma.lua"), "-- shadowed")
	mustWrite(t, filepath.Join(second, "stars.lua"), "-- stars")

	loader := NewLoader(WithPaths(first, second))
	scripts, err := loader.Discover()
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	want := []ScriptInfo{
		{Name: "maze", Path: filepath.Join(first, "maze", "init.lua")},
		{Name: "plasma", Path: filepath.Join(first, "plasma.lua")},
		{Name: "stars", Path: filepath.Join(second, "stars.lua")},
	}
	if len(scripts) != len(want) {
		t.Fatalf("Discover() = %v, want %v", scripts, want)
	}
	for i := range want {
		if scripts[i] != want[i] {
			t.Errorf("scripts[%d] = %+v, want %+v", i, scripts[i], want[i])
		}
	}
}

func TestLoaderFind(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "stars.lua"), "-- stars")
	mustWrite(t, filepath.Join(dir, "maze", "init.lua"), "-- maze")
	direct := filepath.Join(t.TempDir(), "direct.lua")
	mustWrite(t, direct, "-- direct")

	loader := NewLoader(WithPaths(dir))

	tests := []struct {
		arg      string
		wantName string
		wantPath string
	}{
		{"stars", "stars", filepath.Join(dir, "stars.lua")},
		{"maze", "maze", filepath.Join(dir, "maze", "init.lua")},
		{direct, "direct", direct},
	}
	for _, tt := range tests {
		info, err := loader.Find(tt.arg)
		if err != nil {
			t.Errorf("Find(%q) error = %v", tt.arg, err)
			continue
		}
		if info.Name != tt.wantName || info.Path != tt.wantPath {
			t.Errorf("Find(%q) = %+v, want %s at %s", tt.arg, info, tt.wantName, tt.wantPath)
		}
		if s := info.Script(); s.Path != tt.wantPath {
			t.Errorf("Script().Path = %q, want %q", s.Path, tt.wantPath)
		}
	}

	if _, err := loader.Find("nope"); !errors.Is(err, ErrScriptNotFound) {
		t.Errorf("Find(nope) error = %v, want ErrScriptNotFound", err)
	}
}
