// Package main is the entry point for the mviflow counter demo.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/mviflow/internal/config"
	"github.com/dshills/mviflow/internal/counter"
	"github.com/dshills/mviflow/internal/logging"
	"github.com/dshills/mviflow/internal/mvi"
	"github.com/dshills/mviflow/internal/terminal"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	configPath string
	logLevel   string
	sequential bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.logLevel != "" {
		cfg.Binder.LogLevel = opts.logLevel
	}
	if opts.sequential {
		cfg.Binder.SequentialActions = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open log file: %v\n", err)
		return 1
	}
	defer closeLog()

	stepper, err := newStepper(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	luaStepper, _ := stepper.(*counter.LuaStepper)
	if luaStepper != nil {
		defer luaStepper.Close()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize terminal: %v\n", err)
		return 1
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The flow lives until the view quits or a signal arrives.
	flowCtx, cancelFlow := context.WithCancel(ctx)
	defer cancelFlow()

	source := &counter.SimulatedSource{
		Base:      cfg.Counter.Initial,
		Latency:   cfg.Counter.RefreshLatency.Std(),
		FailEvery: cfg.Counter.FailEvery,
	}
	flowOpts := []mvi.Option{
		mvi.WithLogger(logger),
		mvi.WithStateEquality(func(a, b counter.State) bool { return a == b }),
	}
	if cfg.Binder.SequentialActions {
		flowOpts = append(flowOpts, mvi.WithSequentialActions())
	}
	flow := counter.NewFlow(flowCtx, counter.State{Count: cfg.Counter.Initial}, counter.NewService(stepper, source), flowOpts...)

	view := terminal.NewCounterView(screen)
	if err := flow.BindSideEffects(flowCtx, view); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := flow.BindView(flowCtx, view); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	var g errgroup.Group
	if luaStepper != nil {
		w, err := counter.WatchStepScript(luaStepper, cfg.Counter.StepScript, logger)
		if err != nil {
			logger.Warn("step script will not be reloaded: %v", err)
		} else {
			g.Go(func() error { return w.Run(flowCtx) })
		}
	}
	g.Go(func() error {
		defer cancelFlow()
		return view.Run(flowCtx)
	})
	g.Go(flow.Wait)

	if err := g.Wait(); err != nil {
		logger.Error("counter exited: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	s := flow.Stats()
	logger.Info("counter stopped: actions=%d errors=%d panics=%d", s.ActionsReceived, s.HandlerErrors, s.HandlerPanics)
	return 0
}

func newLogger(cfg *config.Config) (*logging.Logger, func(), error) {
	if cfg.Binder.LogFile == "" {
		return logging.NullLogger, func() {}, nil
	}

	f, err := os.OpenFile(cfg.Binder.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}

	lc := logging.DefaultLoggerConfig()
	lc.Level = cfg.LogLevel()
	lc.Output = f
	return logging.NewLogger(lc), func() { _ = f.Close() }, nil
}

func newStepper(cfg *config.Config) (counter.Stepper, error) {
	if cfg.Counter.StepScript == "" {
		return counter.FixedStep(cfg.Counter.Step), nil
	}
	s, err := counter.LoadLuaStepper(cfg.Counter.StepScript)
	if err != nil {
		return nil, fmt.Errorf("loading step script: %w", err)
	}
	return s, nil
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file (.toml, .yaml)")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.sequential, "sequential", false, "Handle each action to completion before the next")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "mviflow counter - reactive state binder demo\n\n")
		fmt.Fprintf(os.Stderr, "Usage: counter [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment overrides use the %s prefix, e.g. %sCOUNTER_STEP=5\n", config.EnvPrefix, config.EnvPrefix)
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("mviflow counter %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.logLevel != "" && !logging.ValidLogLevel(opts.logLevel) {
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
		os.Exit(1)
	}

	return opts
}
