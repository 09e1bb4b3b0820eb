package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vertextoedge/audio-dedup/internal/adapter/audio"
	"github.com/vertextoedge/audio-dedup/internal/adapter/filesystem"
	"github.com/vertextoedge/audio-dedup/internal/adapter/sqlite"
	"github.com/vertextoedge/audio-dedup/internal/cli"
	"github.com/vertextoedge/audio-dedup/internal/config"
	"github.com/vertextoedge/audio-dedup/internal/domain"
	"github.com/vertextoedge/audio-dedup/internal/domain/event"
	"github.com/vertextoedge/audio-dedup/internal/logger"
	"github.com/vertextoedge/audio-dedup/internal/port"
	"github.com/vertextoedge/audio-dedup/internal/service/dedup"
	"github.com/vertextoedge/audio-dedup/internal/service/disposition"
	"github.com/vertextoedge/audio-dedup/internal/service/maintenance"
)

const version = "0.1.0"

// Exit codes
const (
	exitOK          = 0
	exitError       = 1
	exitInterrupted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// options are the parsed command line flags
type options struct {
	configPath  string
	batch       bool
	printConfig bool
	directory   string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("audio-dedup", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: audio-dedup [flags] [directory]\n\n")
		fmt.Fprintf(fs.Output(), "Finds duplicate audio files under directory and reports, moves or deletes them.\n")
		fmt.Fprintf(fs.Output(), "Without a directory you are prompted for one.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "Path to an optional YAML configuration file")
	fs.BoolVar(&opts.batch, "batch", false, "Do not prompt; take preferences from the configuration")
	fs.BoolVar(&opts.printConfig, "print-config", false, "Print the effective configuration as YAML and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.directory = fs.Arg(0)
	return opts, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return exitError
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitError
	}

	if opts.printConfig {
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			fmt.Fprintf(stderr, "Failed to print configuration: %v\n", err)
			return exitError
		}
		return exitOK
	}

	prompter := cli.NewPrompter(stdin, stdout)

	root := opts.directory
	if root == "" {
		if opts.batch {
			fmt.Fprintln(stderr, "Error: a directory is required in batch mode")
			return exitError
		}
		if root, err = prompter.Directory(); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitError
		}
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		fmt.Fprintf(stderr, "Error: '%s' is not a valid directory\n", root)
		return exitError
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	prefs := cfg.Preferences()
	if !opts.batch {
		if prefs, err = prompter.Preferences(prefs); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitError
		}
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return exitError
	}
	defer logger.Sync()

	zapLogger := logger.GetZapLogger()
	runID := uuid.NewString()
	zapLogger.Info("starting audio-dedup",
		zap.String("version", version),
		zap.String("run_id", runID),
		zap.String("root", root),
		zap.String("action", prefs.Action.String()),
		zap.Float64("threshold", prefs.Threshold))

	app, err := newApp(cfg, prefs, runID, progressOutput(cfg, stderr), zapLogger)
	if err != nil {
		zapLogger.Error("failed to set up", zap.Error(err))
		return exitError
	}
	defer app.close()

	if err := app.run(ctx, root); err != nil {
		if errors.Is(err, context.Canceled) {
			zapLogger.Warn("interrupted, stopping before touching more files")
			return exitInterrupted
		}
		zapLogger.Error("run failed", zap.Error(err))
		return exitError
	}
	return exitOK
}

// progressOutput returns the progress bar writer, or nil when bars are
// disabled or stderr is not a terminal
func progressOutput(cfg *config.Config, stderr io.Writer) io.Writer {
	if !cfg.Scan.ProgressBar {
		return nil
	}
	f, ok := stderr.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return nil
	}
	return f
}

// app holds the wired services of one run
type app struct {
	prefs       domain.Preferences
	store       *sqlite.Store
	finder      *dedup.Finder
	executor    *disposition.Executor
	maintenance *maintenance.Service
	summary     *event.SummaryHandler
	logger      *zap.Logger
}

func newApp(cfg *config.Config, prefs domain.Preferences, runID string, progressOut io.Writer, zapLogger *zap.Logger) (*app, error) {
	fsManager := filesystem.NewManager(cfg.Scan.Extensions,
		filesystem.WithBufferSize(cfg.Scan.BufferSize()),
		filesystem.WithSkipHidden(cfg.Scan.SkipHidden))

	fingerprinter, err := audio.NewFingerprinter(audio.FingerprintOptions{
		Backend:       cfg.Fingerprint.Backend,
		MaxSeconds:    float64(cfg.Fingerprint.MaxSeconds),
		FrameMs:       cfg.Fingerprint.FrameMs,
		FFTSize:       cfg.Fingerprint.FFTSize,
		FpcalcPath:    cfg.Fingerprint.FpcalcPath,
		FpcalcTimeout: cfg.Fingerprint.FpcalcTimeout,
	})
	if err != nil {
		return nil, err
	}
	if cp, ok := fingerprinter.(*audio.ChromaprintFingerprinter); ok && !cp.Available() {
		zapLogger.Warn("fpcalc not found, using the pcm fingerprint",
			zap.String("fpcalc", cfg.Fingerprint.FpcalcPath))
		fingerprinter = audio.NewEnvelopeFingerprinter(float64(cfg.Fingerprint.MaxSeconds), cfg.Fingerprint.FrameMs)
	}

	grouping, err := dedup.ParseGroupingMode(cfg.Match.Grouping)
	if err != nil {
		return nil, err
	}

	a := &app{prefs: prefs, summary: event.NewSummaryHandler(), logger: zapLogger}

	dispatcher := event.NewInMemoryDispatcher()
	dispatcher.Subscribe(event.NewLoggingHandler(zapLogger))
	dispatcher.Subscribe(a.summary)

	var signals port.SignalRepository
	if cfg.Cache.Enabled {
		a.store = openStore(&cfg.Cache, zapLogger)
	}
	if a.store != nil {
		signals = a.store
		dispatcher.Subscribe(disposition.NewJournalHandler(a.store))
	}

	progress := dedup.Progress{Interval: cfg.Scan.ProgressInterval, Output: progressOut}
	tags := audio.NewTagReader()

	a.finder = dedup.New(&dedup.Config{
		Matcher: dedup.MatcherConfig{
			Threshold:      prefs.Threshold,
			MinCorrelation: cfg.Match.MinCorrelation,
			Grouping:       grouping,
		},
		Workers:  cfg.Scan.Workers,
		Progress: progress,
		RunID:    runID,
	}, fsManager, tags, fingerprinter, signals, dispatcher, zapLogger)

	a.executor = disposition.New(&disposition.Config{Preferences: prefs, RunID: runID},
		fsManager, disposition.NewDescriber(tags, audio.NewDurationReader(), zapLogger), dispatcher, zapLogger)

	maintenanceCfg := &maintenance.Config{PruneCache: cfg.Cache.Prune}
	if prefs.Action == domain.ActionMove {
		maintenanceCfg.PartialDirs = []string{prefs.OutputDir}
	}
	a.maintenance = maintenance.New(maintenanceCfg, signals, fsManager, zapLogger)

	return a, nil
}

// openStore opens the signal cache. A broken cache only costs speed, so
// failures are logged and the run continues without it.
func openStore(cfg *config.CacheConfig, zapLogger *zap.Logger) *sqlite.Store {
	dbPath, err := cfg.DatabasePath()
	if err != nil {
		zapLogger.Warn("signal cache disabled", zap.Error(err))
		return nil
	}
	store, err := sqlite.Open(dbPath)
	if err != nil {
		zapLogger.Warn("signal cache disabled", zap.String("path", dbPath), zap.Error(err))
		return nil
	}
	zapLogger.Debug("signal cache opened", zap.String("path", dbPath))
	return store
}

func (a *app) run(ctx context.Context, root string) error {
	if _, err := a.maintenance.Run(ctx, root); err != nil {
		return err
	}

	result, err := a.finder.Find(ctx, root)
	if err != nil {
		return err
	}
	if len(result.Files) == 0 {
		a.logger.Info("no audio files found")
		return nil
	}

	disposed, err := a.executor.Execute(ctx, result.Groups())
	if err != nil {
		return err
	}

	a.logger.Info("done", a.summary.Fields()...)
	if disposed.Failed > 0 {
		a.logger.Warn("some files could not be processed", zap.Int("count", disposed.Failed))
	}
	return nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close signal cache", zap.Error(err))
		}
	}
}
