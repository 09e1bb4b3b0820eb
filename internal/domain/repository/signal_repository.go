package repository

import (
	"context"

	"github.com/vertextoedge/audio-dedup/internal/domain"
)

// SignalRepository persists extracted signals between runs
type SignalRepository interface {
	// GetSignals retrieves the cached signals for a path.
	// Returns domain.ErrNotFound if nothing is cached.
	GetSignals(ctx context.Context, path string) (*domain.CachedSignals, error)

	// GetSignalsBatch retrieves cached signals for many paths at once.
	// Paths without an entry are absent from the result.
	GetSignalsBatch(ctx context.Context, paths []string) (map[string]*domain.CachedSignals, error)

	// SaveSignals inserts or replaces the entry for entry.Path
	SaveSignals(ctx context.Context, entry *domain.CachedSignals) error

	// DeleteSignals removes the entry for a path
	DeleteSignals(ctx context.Context, path string) error

	// ListSignalPaths returns every cached path under a root directory
	ListSignalPaths(ctx context.Context, root string) ([]string, error)

	// CountSignals returns the number of cached entries
	CountSignals(ctx context.Context) (int64, error)
}
