package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Loader finds scripts by name in a list of search paths.
type Loader struct {
	// Search paths (checked in order, first match wins)
	paths []string

	discovered map[string]ScriptInfo
}

// ScriptInfo contains discovery information about a script.
type ScriptInfo struct {
	Name string
	Path string
}

// Script returns the hostable script.
func (i ScriptInfo) Script() Script {
	return Script{Name: i.Name, Path: i.Path}
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithPaths sets the script search paths.
func WithPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.paths = paths
	}
}

// NewLoader creates a new script loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		paths:      DefaultScriptPaths(),
		discovered: make(map[string]ScriptInfo),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// DefaultScriptPaths returns the default script search paths.
func DefaultScriptPaths() []string {
	paths := make([]string, 0, 2)

	// Project scripts: ./scripts/
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, "scripts"))
	}

	// User scripts: ~/.config/conscreen/scripts/
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "conscreen", "scripts"))
	}

	return paths
}

// Paths returns the configured search paths.
func (l *Loader) Paths() []string {
	return l.paths
}

// Discover finds all scripts in the search paths, sorted by name.
func (l *Loader) Discover() ([]ScriptInfo, error) {
	l.discovered = make(map[string]ScriptInfo)

	for _, basePath := range l.paths {
		if err := l.discoverInPath(basePath); err != nil {
			return nil, err
		}
	}

	scripts := make([]ScriptInfo, 0, len(l.discovered))
	for _, info := range l.discovered {
		scripts = append(scripts, info)
	}
	sort.Slice(scripts, func(i, j int) bool {
		return scripts[i].Name < scripts[j].Name
	})
	return scripts, nil
}

// discoverInPath finds scripts in a single directory.
func (l *Loader) discoverInPath(basePath string) error {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		var name, path string
		if entry.IsDir() {
			name = entry.Name()
			path = filepath.Join(basePath, name, "init.lua")
			if !isFile(path) {
				continue
			}
		} else if filepath.Ext(entry.Name()) == ".lua" {
			name = strings.TrimSuffix(entry.Name(), ".lua")
			path = filepath.Join(basePath, entry.Name())
		} else {
			continue
		}

		if _, exists := l.discovered[name]; !exists {
			l.discovered[name] = ScriptInfo{Name: name, Path: path}
		}
	}
	return nil
}

// Find resolves a script argument. An existing file path is used as is;
// otherwise name is looked up as name.lua or name/init.lua in each search path.
func (l *Loader) Find(name string) (ScriptInfo, error) {
	if isFile(name) {
		return ScriptInfo{
			Name: strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)),
			Path: name,
		}, nil
	}

	if info, ok := l.discovered[name]; ok {
		return info, nil
	}

	for _, basePath := range l.paths {
		for _, candidate := range []string{
			filepath.Join(basePath, name+".lua"),
			filepath.Join(basePath, name, "init.lua"),
		} {
			if isFile(candidate) {
				info := ScriptInfo{Name: name, Path: candidate}
				l.discovered[name] = info
				return info, nil
			}
		}
	}

	return ScriptInfo{}, fmt.Errorf("%w: %s", ErrScriptNotFound, name)
}

func isFile(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && !stat.IsDir()
}
