package dedup

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/audio-dedup/internal/domain"
	"github.com/vertextoedge/audio-dedup/internal/domain/event"
	"github.com/vertextoedge/audio-dedup/internal/port"
)

// Config contains duplicate finder configuration
type Config struct {
	Matcher MatcherConfig

	// Workers is the number of files extracted in parallel
	Workers int

	Progress Progress

	// RunID tags the events raised by this run
	RunID string
}

// DefaultConfig returns default finder configuration
func DefaultConfig() *Config {
	return &Config{
		Matcher: DefaultMatcherConfig(),
		Workers: 4,
	}
}

// Result is the outcome of a duplicate search
type Result struct {
	// Files lists every discovered file in discovery order
	Files []*domain.AudioFile

	ExactGroups []*domain.DuplicateGroup
	FuzzyGroups []*domain.DuplicateGroup

	Stats domain.ScanStats
}

// Groups returns exact groups followed by fuzzy groups
func (r *Result) Groups() []*domain.DuplicateGroup {
	groups := make([]*domain.DuplicateGroup, 0, len(r.ExactGroups)+len(r.FuzzyGroups))
	groups = append(groups, r.ExactGroups...)
	return append(groups, r.FuzzyGroups...)
}

// Finder runs the duplicate search pipeline: enumerate, exact grouping,
// signal extraction and fuzzy matching.
type Finder struct {
	config     *Config
	fs         port.FileSystem
	cache      *SignalCache
	grouper    *HashGrouper
	extractor  *Extractor
	matcher    *Matcher
	dispatcher event.EventDispatcher
	logger     *zap.Logger
}

// New creates a new Finder. signals, tags, fingerprinter and dispatcher may
// be nil.
func New(
	cfg *Config,
	fs port.FileSystem,
	tags port.TagReader,
	fingerprinter port.Fingerprinter,
	signals port.SignalRepository,
	dispatcher event.EventDispatcher,
	logger *zap.Logger,
) *Finder {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if dispatcher == nil {
		dispatcher = event.NewNullDispatcher()
	}

	backend := ""
	if fingerprinter != nil {
		backend = fingerprinter.Name()
	}
	cache := NewSignalCache(signals, backend, logger)

	grouper := NewHashGrouper(fs, cache, logger)
	grouper.Progress = cfg.Progress

	extractor := NewExtractor(cfg.Workers, tags, fingerprinter, cache, logger)
	extractor.Progress = cfg.Progress

	return &Finder{
		config:     cfg,
		fs:         fs,
		cache:      cache,
		grouper:    grouper,
		extractor:  extractor,
		matcher:    NewMatcher(cfg.Matcher, logger),
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Find enumerates root and searches it for duplicates. A root that is not
// a directory is the only fatal input error. root is made absolute first:
// file paths are the signal cache keys and must not depend on the working
// directory.
func (f *Finder) Find(ctx context.Context, root string) (*Result, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	root = abs

	infos, err := f.fs.Enumerate(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s: %w", root, err)
	}

	files := make([]*domain.AudioFile, len(infos))
	for i, info := range infos {
		files[i] = domain.NewAudioFile(info.Path, i, info.Size, info.ModTime)
	}

	f.logger.Info("audio files discovered",
		zap.String("root", root),
		zap.Int("count", len(files)))

	result, err := f.FindIn(ctx, files)
	if err != nil {
		return nil, err
	}

	if err := f.dispatcher.Dispatch(event.NewScanCompleted(
		f.config.RunID, root, len(files),
		len(result.ExactGroups), len(result.FuzzyGroups), result.Stats.Duration,
	)); err != nil {
		f.logger.Warn("event handler failed", zap.Error(err))
	}

	return result, nil
}

// FindIn searches an already enumerated file list. files must be in
// discovery order with Index set accordingly.
func (f *Finder) FindIn(ctx context.Context, files []*domain.AudioFile) (*Result, error) {
	start := time.Now()
	result := &Result{Files: files}
	result.Stats.TotalFiles = len(files)

	if len(files) < 2 {
		result.Stats.ResidualFiles = len(files)
		result.Stats.Duration = time.Since(start)
		return result, nil
	}

	f.cache.Load(ctx, files)
	// cache writes survive an interrupted run
	defer func() {
		if saved := f.cache.Flush(context.WithoutCancel(ctx)); saved > 0 {
			f.logger.Debug("signals cached", zap.Int("entries", saved))
		}
	}()

	hashed, err := f.grouper.Group(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("exact grouping interrupted: %w", err)
	}
	result.ExactGroups = hashed.Groups
	result.Stats.HashedFiles = hashed.Hashed
	result.Stats.ResidualFiles = len(hashed.Residual)

	f.logger.Info("exact duplicates grouped",
		zap.Int("groups", len(hashed.Groups)),
		zap.Int("hashed", hashed.Hashed),
		zap.Int("residual", len(hashed.Residual)))

	if len(hashed.Residual) > 1 {
		if err := f.extractor.Extract(ctx, hashed.Residual); err != nil {
			return nil, fmt.Errorf("signal extraction interrupted: %w", err)
		}

		fuzzy, err := f.matcher.Group(ctx, hashed.Residual)
		if err != nil {
			return nil, fmt.Errorf("fuzzy matching interrupted: %w", err)
		}
		result.FuzzyGroups = fuzzy
	}

	result.Stats.ExactGroups = len(result.ExactGroups)
	result.Stats.FuzzyGroups = len(result.FuzzyGroups)
	result.Stats.Duration = time.Since(start)

	f.logger.Info("duplicate search finished",
		zap.Int("files", result.Stats.TotalFiles),
		zap.Int("exact_groups", result.Stats.ExactGroups),
		zap.Int("fuzzy_groups", result.Stats.FuzzyGroups),
		zap.Duration("duration", result.Stats.Duration))

	return result, nil
}
