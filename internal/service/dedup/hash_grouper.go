package dedup

import (
	"context"

	"go.uber.org/zap"

	"github.com/vertextoedge/audio-dedup/internal/domain"
	"github.com/vertextoedge/audio-dedup/internal/port"
)

// HashResult is the outcome of exact grouping
type HashResult struct {
	// Groups holds byte-identical files, ordered by the first appearance of
	// their size and then of their hash
	Groups []*domain.DuplicateGroup

	// Residual holds every file not in an exact group, in discovery order
	Residual []*domain.AudioFile

	// Hashed counts files whose hash was computed or reused
	Hashed int
}

// HashGrouper finds byte-identical files. Only files sharing their size
// with another file are hashed.
type HashGrouper struct {
	fs     port.FileSystem
	cache  *SignalCache
	logger *zap.Logger

	Progress Progress
}

// NewHashGrouper creates a new HashGrouper. cache may be nil.
func NewHashGrouper(fs port.FileSystem, cache *SignalCache, logger *zap.Logger) *HashGrouper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HashGrouper{fs: fs, cache: cache, logger: logger}
}

// Group partitions files by size, then by content hash. A file that cannot
// be hashed is left out of its partition and ends up in the residual set.
// Only context cancellation aborts grouping.
func (g *HashGrouper) Group(ctx context.Context, files []*domain.AudioFile) (*HashResult, error) {
	bySize := make(map[int64][]*domain.AudioFile)
	var sizeOrder []int64
	candidates := 0
	for _, f := range files {
		size := f.Size.Bytes()
		if _, seen := bySize[size]; !seen {
			sizeOrder = append(sizeOrder, size)
		}
		bySize[size] = append(bySize[size], f)
		if len(bySize[size]) == 2 {
			candidates += 2
		} else if len(bySize[size]) > 2 {
			candidates++
		}
	}

	reporter := g.Progress.reporter("hashing", candidates, g.logger)
	defer reporter.Finish()

	result := &HashResult{}
	grouped := make(map[string]bool)

	for _, size := range sizeOrder {
		members := bySize[size]
		if len(members) < 2 {
			continue
		}

		byHash := make(map[string][]*domain.AudioFile)
		var hashOrder []string

		for _, f := range members {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			hash, err := g.hash(ctx, f)
			reporter.Increment()
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				g.logger.Warn("failed to hash file, leaving it for fuzzy matching",
					zap.String("path", f.Path),
					zap.Error(err))
				continue
			}

			f.Hash = hash
			result.Hashed++
			if _, seen := byHash[hash]; !seen {
				hashOrder = append(hashOrder, hash)
			}
			byHash[hash] = append(byHash[hash], f)
		}

		for _, hash := range hashOrder {
			same := byHash[hash]
			if len(same) < 2 {
				continue
			}
			group, err := domain.NewDuplicateGroup(domain.GroupExact, same)
			if err != nil {
				continue
			}
			result.Groups = append(result.Groups, group)
			for _, f := range same {
				grouped[f.Path] = true
			}
		}
	}

	for _, f := range files {
		if !grouped[f.Path] {
			result.Residual = append(result.Residual, f)
		}
	}

	g.logger.Debug("exact grouping finished",
		zap.Int("files", len(files)),
		zap.Int("hashed", result.Hashed),
		zap.Int("groups", len(result.Groups)),
		zap.Int("residual", len(result.Residual)))

	return result, nil
}

func (g *HashGrouper) hash(ctx context.Context, f *domain.AudioFile) (string, error) {
	if cached := g.cache.Hash(f); cached != "" {
		return cached, nil
	}

	hash, err := g.fs.HashFile(ctx, f.Path)
	if err != nil {
		return "", err
	}
	g.cache.Put(f, &domain.CachedSignals{Hash: hash})
	return hash, nil
}
