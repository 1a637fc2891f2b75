// Package main is the entry point for conscreen.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"golang.org/x/term"

	"github.com/dshills/conscreen/internal/app"
	"github.com/dshills/conscreen/internal/config"
	"github.com/dshills/conscreen/internal/console"
	"github.com/dshills/conscreen/internal/demo"
	"github.com/dshills/conscreen/internal/plugin"
	"github.com/dshills/conscreen/internal/plugin/api"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Replaced in tests.
var (
	newNative = console.NewNative
	isConsole = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options holds the parsed command line.
type options struct {
	configPath  string
	logLevel    string
	logFile     string
	frames      int
	interval    time.Duration
	sizeMode    string
	watch       bool
	jsonOutput  bool
	showVersion bool

	// set records which flags were given explicitly.
	set map[string]bool

	command string
	args    []string
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}

	if opts.showVersion || opts.command == "version" {
		fmt.Fprintf(stdout, "conscreen %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return 0
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger, closer := app.NewLoggerFromConfig(cfg.Logging, stderr)
	defer closer.Close()

	switch opts.command {
	case "run":
		if len(opts.args) != 1 {
			fmt.Fprintln(stderr, "Error: run needs exactly one script name or path")
			return 2
		}
		info, err := scriptLoader(cfg).Find(opts.args[0])
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		err = runScript(cfg, info.Script(), logger)
		return report(stderr, err)

	case "demo":
		cfg.Runner.Watch = false
		return report(stderr, runScript(cfg, demo.Raycast(), logger))

	case "info":
		return report(stderr, printInfo(stdout, cfg, opts.jsonOutput))

	case "list":
		return report(stderr, listScripts(stdout, cfg))

	case "":
		usage(stderr)
		return 2

	default:
		fmt.Fprintf(stderr, "Error: unknown command %q\n", opts.command)
		usage(stderr)
		return 2
	}
}

func report(stderr io.Writer, err error) int {
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{set: make(map[string]bool)}

	fs := flag.NewFlagSet("conscreen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr); fs.PrintDefaults() }

	fs.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	fs.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&opts.logFile, "log-file", "", "Write logs to a rotating file")
	fs.IntVar(&opts.frames, "frames", 0, "Stop after this many frames (0 = unlimited)")
	fs.DurationVar(&opts.interval, "interval", 0, "Delay between frames (e.g. 50ms)")
	fs.StringVar(&opts.sizeMode, "size-mode", "", "How sizes above 255 are reported (strict, truncate)")
	fs.BoolVar(&opts.watch, "watch", false, "Reload the script when its file changes")
	fs.BoolVar(&opts.jsonOutput, "json", false, "Print info as JSON")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version information")
	fs.BoolVar(&opts.showVersion, "v", false, "Show version information (shorthand)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if rest := fs.Args(); len(rest) > 0 {
		opts.command = rest[0]
		args, err := parseInterleaved(fs, rest[1:])
		if err != nil {
			return nil, err
		}
		opts.args = args
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	return opts, nil
}

// parseInterleaved parses flags that follow or sit between positional
// arguments and returns the positionals in order. Everything after "--"
// is positional.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for len(args) > 0 {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		consumed := len(args) - fs.NArg()
		if consumed > 0 && args[consumed-1] == "--" {
			return append(positional, fs.Args()...), nil
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
	return positional, nil
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "conscreen - run Lua scripts on a Windows console screen buffer\n\n")
	fmt.Fprintf(w, "Usage: conscreen [options] <command> [args]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  run <script>   Run a script by name or path\n")
	fmt.Fprintf(w, "  demo           Run the built-in raycaster\n")
	fmt.Fprintf(w, "  info           Create a screen buffer and print its size\n")
	fmt.Fprintf(w, "  list           List Lua modules and the scripts in the search paths\n")
	fmt.Fprintf(w, "  version        Show version information\n\n")
	fmt.Fprintf(w, "Examples:\n")
	fmt.Fprintf(w, "  conscreen demo -frames 200\n")
	fmt.Fprintf(w, "  conscreen run -watch ./scripts/clock.lua\n")
	fmt.Fprintf(w, "  conscreen info -json\n\n")
}

// loadConfig reads the config file and environment, then applies the
// flags that were given explicitly.
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if opts.set["log-level"] {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.set["log-file"] {
		cfg.Logging.File = opts.logFile
	}
	if opts.set["frames"] {
		cfg.Runner.MaxFrames = opts.frames
	}
	if opts.set["interval"] {
		cfg.Runner.FrameInterval = opts.interval
	}
	if opts.set["size-mode"] {
		cfg.Console.SizeMode = opts.sizeMode
	}
	if opts.set["watch"] {
		cfg.Runner.Watch = opts.watch
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func scriptLoader(cfg *config.Config) *plugin.Loader {
	paths := append(append([]string(nil), cfg.Scripts.Paths...), plugin.DefaultScriptPaths()...)
	return plugin.NewLoader(plugin.WithPaths(paths...))
}

func runScript(cfg *config.Config, script plugin.Script, logger *app.Logger) error {
	if !isConsole() {
		return app.ErrNoConsole
	}

	application, err := app.New(app.Options{
		Config: cfg,
		Script: script,
		Native: newNative(),
		Logger: logger,
	})
	if err != nil {
		return err
	}

	// Handle signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return application.Run(ctx)
}

func printInfo(w io.Writer, cfg *config.Config, asJSON bool) error {
	if !isConsole() {
		return app.ErrNoConsole
	}

	rep, err := app.Inspect(newNative(), cfg)
	if err != nil {
		return err
	}

	if asJSON {
		out, err := infoJSON(rep)
		if err != nil {
			return err
		}
		_, err = w.Write(pretty.Pretty([]byte(out)))
		return err
	}

	g := rep.Geometry
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if rep.SizeErr != nil {
		fmt.Fprintf(tw, "size:\t%v (%s)\n", rep.SizeErr, rep.SizeMode)
	} else {
		fmt.Fprintf(tw, "size:\t%dx%d (%s)\n", rep.Size.Width, rep.Size.Height, rep.SizeMode)
	}
	fmt.Fprintf(tw, "buffer:\t%dx%d\n", g.Width, g.Height)
	fmt.Fprintf(tw, "cursor:\t%d,%d\n", g.CursorX, g.CursorY)
	fmt.Fprintf(tw, "window:\t%d,%d - %d,%d\n", g.Window.Left, g.Window.Top, g.Window.Right, g.Window.Bottom)
	return tw.Flush()
}

// infoJSON renders the report with the {width, height} object scripts
// receive from get_screen_info at the top level.
func infoJSON(rep app.Report) (string, error) {
	out := "{}"
	var err error

	set := func(path string, value any) {
		if err == nil {
			out, err = sjson.Set(out, path, value)
		}
	}

	if rep.SizeErr != nil {
		set("error", rep.SizeErr.Error())
		set("kind", console.Kind(rep.SizeErr))
	} else {
		set("width", rep.Size.Width)
		set("height", rep.Size.Height)
	}
	set("size_mode", rep.SizeMode.String())
	set("geometry", rep.Geometry)

	return out, err
}

func listScripts(w io.Writer, cfg *config.Config) error {
	loader := scriptLoader(cfg)
	scripts, err := loader.Discover()
	if err != nil {
		return err
	}

	// Only names and capabilities are read; no module is loaded.
	registry, err := api.DefaultRegistry(&api.Context{})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Modules:")
	for _, name := range registry.List() {
		mod, _ := registry.Get(name)
		needs := "-"
		if c := mod.RequiredCapability(); c != "" {
			needs = "capability " + string(c)
		}
		fmt.Fprintf(tw, "  %s\t%s\n", name, needs)
	}
	fmt.Fprintln(tw, "Scripts:")
	fmt.Fprintf(tw, "  %s\t%s\n", demo.RaycastName, "(built in, run with: conscreen demo)")
	for _, s := range scripts {
		fmt.Fprintf(tw, "  %s\t%s\n", s.Name, s.Path)
	}
	return tw.Flush()
}
