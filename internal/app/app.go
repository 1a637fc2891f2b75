// Package app wires the console adapter, the script host and the
// configuration together and drives a script's frame loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/conscreen/internal/config"
	"github.com/dshills/conscreen/internal/console"
	"github.com/dshills/conscreen/internal/plugin"
	"github.com/dshills/conscreen/internal/plugin/api"
	plua "github.com/dshills/conscreen/internal/plugin/lua"
)

// Application runs one script against one console adapter.
type Application struct {
	// Core infrastructure
	config  *config.Config
	logger  *Logger
	metrics *Metrics

	// Console and scripting
	console  *console.Adapter
	registry *api.Registry
	host     *plugin.Host

	// State
	running  atomic.Bool
	done     chan struct{}
	doneOnce sync.Once
	reloads  chan struct{}
}

// Options configures the application.
type Options struct {
	// Config holds the settings. Nil uses config.Default().
	Config *config.Config

	// Script is the Lua program to run.
	Script plugin.Script

	// Native is the console binding. Nil uses the platform binding.
	Native console.Native

	// Logger receives application and script output. Nil discards it.
	Logger *Logger
}

// New creates a new Application with the given options.
func New(opts Options) (*Application, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}

	logger := opts.Logger
	if logger == nil {
		logger = NullLogger
	}

	app := &Application{
		config:  cfg,
		logger:  logger,
		metrics: NewMetrics(),
		console: console.New(opts.Native, console.WithSizeMode(cfg.SizeMode())),
		done:    make(chan struct{}),
		reloads: make(chan struct{}, 1),
	}

	registry, err := api.DefaultRegistry(&api.Context{Console: app.console})
	if err != nil {
		return nil, &InitError{Component: "registry", Err: err}
	}
	app.registry = registry

	scriptLog := logger.WithComponent("script").WithField("script", opts.Script.DisplayName())
	host, err := plugin.NewHost(opts.Script,
		plugin.WithRegistry(registry),
		plugin.WithCapabilities(plua.CapabilityConsole),
		plugin.WithHostConfig(cfg.ScriptConfig()),
		plugin.WithHostExecutionTimeout(cfg.Runner.ExecutionTimeout),
		plugin.WithPrintFunc(func(s string) { scriptLog.Info("%s", s) }),
	)
	if err != nil {
		return nil, &InitError{Component: "script host", Err: err}
	}
	app.host = host

	return app, nil
}

// Run loads the script and drives its frame loop. It blocks until the
// context is cancelled, Shutdown is called, runner.max_frames ticks have
// run, or tick returns false. The screen buffer is released on return.
func (app *Application) Run(ctx context.Context) (err error) {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	log := app.logger.WithComponent("app")
	name := app.host.Name()

	if err := app.host.Load(ctx); err != nil {
		return NewOperationError("load", name, err)
	}
	if skipped := app.host.SkippedModules(); len(skipped) > 0 {
		log.Warn("modules unavailable to %s: %v", name, skipped)
	}

	// Teardown must run even when ctx is already cancelled.
	cleanupCtx := context.WithoutCancel(ctx)
	defer func() {
		if uerr := app.host.Unload(cleanupCtx); uerr != nil {
			log.Warn("unload %s: %v", name, uerr)
		}
		if cerr := app.console.Close(); cerr != nil {
			err = errors.Join(err, NewOperationError("close", "console", cerr))
		}
	}()

	if app.config.Runner.Watch {
		stop, werr := app.startWatcher(log)
		if werr != nil {
			log.Warn("watch %s: %v", name, werr)
		} else {
			defer stop()
		}
	}

	if err := app.host.Activate(ctx); err != nil {
		return NewOperationError("activate", name, err)
	}

	if app.host.HasTick() {
		err = app.frameLoop(ctx, log)
	}

	if derr := app.host.Deactivate(cleanupCtx); derr != nil {
		err = errors.Join(err, NewOperationError("deactivate", name, derr))
	}

	snap := app.metrics.Snapshot()
	stats := app.host.Stats()
	log.WithFields(map[string]any{
		"state":           stats.State.String(),
		"skipped_modules": stats.Skipped,
	}).Info("%s finished: %d frames, avg tick %s, %d overruns, %d reloads",
		name, snap.FrameCount, snap.AvgFrameTime, snap.Overruns, snap.Reloads)

	return err
}

// frameLoop calls tick once per frame interval with the elapsed time
// since the previous call.
func (app *Application) frameLoop(ctx context.Context, log *Logger) error {
	interval := app.config.Runner.FrameInterval
	maxFrames := uint64(max(app.config.Runner.MaxFrames, 0))
	name := app.host.Name()

	timer := time.NewTimer(0)
	defer timer.Stop()

	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-app.done:
			return nil

		case <-app.reloads:
			app.reload(ctx, log)
			continue

		case <-timer.C:
		}

		if app.host.State() != plugin.StateActive {
			// A failed reload leaves the script unloaded until the next change.
			timer.Reset(max(interval, DefaultWatchDelay))
			continue
		}

		now := time.Now()
		elapsed := now.Sub(last)
		last = now

		more, err := app.host.Tick(ctx, elapsed)
		took := time.Since(now)
		app.metrics.RecordFrame(took)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return NewOperationError("tick", name, err).WithContext(fmt.Sprintf("frame %d", app.host.Frames()))
		}
		if !more {
			log.Debug("%s stopped itself after %d frames", name, app.host.Frames())
			return nil
		}
		if maxFrames > 0 && app.host.Frames() >= maxFrames {
			return nil
		}

		wait := interval - took
		if wait < 0 {
			app.metrics.RecordOverrun()
			wait = 0
		}
		timer.Reset(wait)
	}
}

// reload reloads the script and reactivates it. Failures are logged and
// leave the script unloaded.
func (app *Application) reload(ctx context.Context, log *Logger) {
	name := app.host.Name()
	app.metrics.RecordReload()

	if err := app.host.Reload(ctx); err != nil {
		log.Error("reload %s: %v", name, err)
		return
	}
	// Reload only reactivates scripts that were active before.
	if app.host.State() == plugin.StateLoaded {
		if err := app.host.Activate(ctx); err != nil {
			log.Error("activate %s after reload: %v", name, err)
			return
		}
	}
	log.Info("reloaded %s", name)
}

// startWatcher forwards file changes of the script to the reload channel.
func (app *Application) startWatcher(log *Logger) (func(), error) {
	path := app.host.Script().Path
	if path == "" {
		return nil, errors.New("inline scripts cannot be watched")
	}

	w, err := NewScriptWatcher(path, DefaultWatchDelay)
	if err != nil {
		return nil, err
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			case <-w.Changes():
				app.RequestReload()
			case err := <-w.Errors():
				log.Warn("watcher: %v", err)
			}
		}
	}()

	return func() {
		close(stop)
		wg.Wait()
		_ = w.Close()
	}, nil
}

// RequestReload asks the frame loop to reload the script before the next
// tick. Requests made while one is pending are merged.
func (app *Application) RequestReload() {
	select {
	case app.reloads <- struct{}{}:
	default:
	}
}

// Shutdown stops a running frame loop.
func (app *Application) Shutdown() {
	app.doneOnce.Do(func() {
		close(app.done)
	})
}

// IsRunning returns true if the application is running.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Config returns the configuration.
func (app *Application) Config() *config.Config {
	return app.config
}

// Console returns the console adapter.
func (app *Application) Console() *console.Adapter {
	return app.console
}

// Host returns the script host.
func (app *Application) Host() *plugin.Host {
	return app.host
}

// Metrics returns the frame metrics.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}
