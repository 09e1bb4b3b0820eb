package maintenance

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/vertextoedge/audio-dedup/internal/port"
)

// PartialCleaner removes leftovers of interrupted cross-device moves
type PartialCleaner interface {
	CleanPartialFiles(dir string) (int, error)
}

// Config contains maintenance service configuration
type Config struct {
	// PruneCache drops cached signals of files that no longer exist
	PruneCache bool

	// PartialDirs are scanned for leftover partial copies
	PartialDirs []string
}

// DefaultConfig returns default maintenance configuration
func DefaultConfig() *Config {
	return &Config{PruneCache: true}
}

// Report summarizes one maintenance pass
type Report struct {
	PrunedEntries int
	PartialFiles  int
}

// Service keeps the signal cache and the output directory tidy between runs
type Service struct {
	config   *Config
	signals  port.SignalRepository
	fs       port.FileSystem
	partials PartialCleaner
	logger   *zap.Logger
}

// New creates a new maintenance Service. signals may be nil when the cache
// is disabled; fs is used for partial cleanup if it implements
// PartialCleaner.
func New(cfg *Config, signals port.SignalRepository, fs port.FileSystem, logger *zap.Logger) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		config:  cfg,
		signals: signals,
		fs:      fs,
		logger:  logger,
	}
	if pc, ok := fs.(PartialCleaner); ok {
		s.partials = pc
	}
	return s
}

// Run performs one maintenance pass over root. Individual failures are
// logged; only a cancelled context stops the pass early.
func (s *Service) Run(ctx context.Context, root string) (*Report, error) {
	report := &Report{}

	// cache keys are absolute paths
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	if s.config.PruneCache && s.signals != nil {
		pruned, err := s.pruneCache(ctx, root)
		report.PrunedEntries = pruned
		if err != nil {
			return report, err
		}
	}

	if s.partials != nil {
		for _, dir := range s.config.PartialDirs {
			count, err := s.partials.CleanPartialFiles(dir)
			if err != nil {
				s.logger.Error("failed to clean partial files", zap.String("dir", dir), zap.Error(err))
				continue
			}
			report.PartialFiles += count
		}
		if report.PartialFiles > 0 {
			s.logger.Info("removed partial files", zap.Int("count", report.PartialFiles))
		}
	}

	return report, nil
}

// pruneCache removes cache entries under root whose file is gone
func (s *Service) pruneCache(ctx context.Context, root string) (int, error) {
	paths, err := s.signals.ListSignalPaths(ctx, root)
	if err != nil {
		s.logger.Error("failed to list cached signals", zap.Error(err))
		return 0, nil
	}

	pruned := 0
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return pruned, fmt.Errorf("cache pruning interrupted: %w", err)
		}
		if s.fs.FileExists(p) {
			continue
		}
		if err := s.signals.DeleteSignals(ctx, p); err != nil {
			s.logger.Warn("failed to prune cache entry", zap.String("path", p), zap.Error(err))
			continue
		}
		pruned++
	}

	if pruned > 0 {
		s.logger.Info("pruned stale cache entries",
			zap.Int("count", pruned),
			zap.Int("checked", len(paths)))
	}
	return pruned, nil
}
