package dedup

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/vertextoedge/audio-dedup/internal/domain"
	domainservice "github.com/vertextoedge/audio-dedup/internal/domain/service"
	"github.com/vertextoedge/audio-dedup/internal/port"
)

// SignalCache is the per-run view of the persistent signal cache. Entries
// are loaded once, consulted through the cache policy and written back in a
// single flush. A nil *SignalCache, or one without a repository, misses on
// every lookup and ignores writes.
type SignalCache struct {
	repo   port.SignalRepository
	policy *domainservice.CachePolicy
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string]*domain.CachedSignals
	dirty   map[string]bool
}

// NewSignalCache creates a cache view for the given fingerprint backend
func NewSignalCache(repo port.SignalRepository, fingerprintBackend string, logger *zap.Logger) *SignalCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SignalCache{
		repo:    repo,
		policy:  domainservice.NewCachePolicy(fingerprintBackend),
		logger:  logger,
		entries: make(map[string]*domain.CachedSignals),
		dirty:   make(map[string]bool),
	}
}

func (c *SignalCache) enabled() bool {
	return c != nil && c.repo != nil
}

// Load fetches the cached entries for files. A failing cache is logged and
// treated as empty.
func (c *SignalCache) Load(ctx context.Context, files []*domain.AudioFile) {
	if !c.enabled() || len(files) == 0 {
		return
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}

	entries, err := c.repo.GetSignalsBatch(ctx, paths)
	if err != nil {
		c.logger.Warn("signal cache unavailable, extracting everything", zap.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for path, entry := range entries {
		c.entries[path] = entry
	}

	c.logger.Debug("signal cache loaded",
		zap.Int("files", len(files)),
		zap.Int("entries", len(entries)))
}

func (c *SignalCache) lookup(path string) *domain.CachedSignals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[path]
}

// Hash returns a reusable content hash for file, or ""
func (c *SignalCache) Hash(file *domain.AudioFile) string {
	if !c.enabled() {
		return ""
	}
	return c.policy.HashFor(c.lookup(file.Path), file)
}

// Tags returns reusable tags for file
func (c *SignalCache) Tags(file *domain.AudioFile) (*domain.TagInfo, bool) {
	if !c.enabled() {
		return nil, false
	}
	return c.policy.TagsFor(c.lookup(file.Path), file)
}

// Fingerprint returns a reusable fingerprint for file
func (c *SignalCache) Fingerprint(file *domain.AudioFile) ([]float64, bool) {
	if !c.enabled() {
		return nil, false
	}
	return c.policy.FingerprintFor(c.lookup(file.Path), file)
}

// Put records fresh signals for file. A stale entry is replaced rather than
// merged so signals from an older version of the file are never kept.
func (c *SignalCache) Put(file *domain.AudioFile, update *domain.CachedSignals) {
	if !c.enabled() || update == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.entries[file.Path]
	if !c.policy.IsFresh(entry, file) {
		entry = &domain.CachedSignals{
			Path:    file.Path,
			Size:    file.Size.Bytes(),
			ModTime: file.ModTime,
		}
		c.entries[file.Path] = entry
	}
	entry.Merge(update)
	c.dirty[file.Path] = true
}

// Flush writes every changed entry back and returns how many were saved.
// Individual write failures are logged and skipped.
func (c *SignalCache) Flush(ctx context.Context) int {
	if !c.enabled() {
		return 0
	}

	c.mu.Lock()
	paths := make([]string, 0, len(c.dirty))
	for p := range c.dirty {
		paths = append(paths, p)
	}
	c.mu.Unlock()
	sort.Strings(paths)

	saved := 0
	for _, p := range paths {
		if ctx.Err() != nil {
			break
		}
		c.mu.Lock()
		entry := c.entries[p]
		c.mu.Unlock()

		if err := c.repo.SaveSignals(ctx, entry); err != nil {
			c.logger.Warn("failed to cache signals", zap.String("path", p), zap.Error(err))
			continue
		}

		c.mu.Lock()
		delete(c.dirty, p)
		c.mu.Unlock()
		saved++
	}

	return saved
}
