package app

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDelay is how long the watcher waits for writes to settle.
const DefaultWatchDelay = 100 * time.Millisecond

// ScriptWatcher reports changes to a single script file.
//
// The file's directory is watched rather than the file itself, so editors
// that save by renaming a temporary file keep triggering events. Bursts of
// events are coalesced into one notification per delay window.
type ScriptWatcher struct {
	mu sync.Mutex

	watcher *fsnotify.Watcher
	path    string
	delay   time.Duration
	pending *time.Timer

	changes chan struct{}
	errors  chan error

	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// NewScriptWatcher starts watching path. A non-positive delay uses
// DefaultWatchDelay.
func NewScriptWatcher(path string, delay time.Duration) (*ScriptWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if delay <= 0 {
		delay = DefaultWatchDelay
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &ScriptWatcher{
		watcher: fsw,
		path:    absPath,
		delay:   delay,
		changes: make(chan struct{}, 1),
		errors:  make(chan error, 8),
		closeCh: make(chan struct{}),
	}

	w.closedWg.Add(1)
	go w.processLoop()

	return w, nil
}

// Path returns the watched file.
func (w *ScriptWatcher) Path() string {
	return w.path
}

// Changes delivers one value per settled burst of writes.
func (w *ScriptWatcher) Changes() <-chan struct{} {
	return w.changes
}

// Errors delivers watcher errors. Errors are dropped when nobody reads.
func (w *ScriptWatcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher.
func (w *ScriptWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	if w.pending != nil {
		w.pending.Stop()
	}
	w.mu.Unlock()

	w.closedWg.Wait()
	return w.watcher.Close()
}

func (w *ScriptWatcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func (w *ScriptWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// schedule starts or resets the debounce timer.
func (w *ScriptWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.pending != nil {
		w.pending.Reset(w.delay)
		return
	}
	w.pending = time.AfterFunc(w.delay, w.fire)
}

func (w *ScriptWatcher) fire() {
	w.mu.Lock()
	w.pending = nil
	closed := w.closed
	w.mu.Unlock()

	if closed {
		return
	}

	// One pending notification is enough; the reader reloads the latest file.
	select {
	case w.changes <- struct{}{}:
	default:
	}
}
