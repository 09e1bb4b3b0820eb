package dedup

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/vertextoedge/audio-dedup/internal/domain"
	domainservice "github.com/vertextoedge/audio-dedup/internal/domain/service"
	"github.com/vertextoedge/audio-dedup/internal/port"
)

// Extractor computes the comparison signals of residual files. Each signal
// is extracted independently: a failed tag read leaves Tags nil, a failed
// fingerprint leaves Fingerprint nil, and neither stops the other.
type Extractor struct {
	workers       int
	tags          port.TagReader
	fingerprinter port.Fingerprinter
	cache         *SignalCache
	logger        *zap.Logger

	Progress Progress
}

// NewExtractor creates an extractor running workers files in parallel.
// tags and fingerprinter may be nil to disable that signal.
func NewExtractor(workers int, tags port.TagReader, fingerprinter port.Fingerprinter, cache *SignalCache, logger *zap.Logger) *Extractor {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		workers:       workers,
		tags:          tags,
		fingerprinter: fingerprinter,
		cache:         cache,
		logger:        logger,
	}
}

// Extract fills Signals for every file. Results are written by index, so
// the order of files is untouched regardless of worker scheduling.
func (e *Extractor) Extract(ctx context.Context, files []*domain.AudioFile) error {
	if len(files) == 0 {
		return nil
	}

	reporter := e.Progress.reporter("extracting", len(files), e.logger)
	defer reporter.Finish()

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < min(e.workers, len(files)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				files[i].Signals = e.extractOne(ctx, files[i])
				reporter.Increment()
			}
		}()
	}

feed:
	for i := range files {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return ctx.Err()
}

func (e *Extractor) extractOne(ctx context.Context, f *domain.AudioFile) *domain.Signals {
	signals := &domain.Signals{
		NormalizedName: domainservice.NormalizeFilename(f.Path),
		Candidates:     domainservice.ArtistTitleCandidates(f.Path),
	}
	update := &domain.CachedSignals{}
	if ctx.Err() != nil {
		return signals
	}

	if tags, ok := e.cache.Tags(f); ok {
		signals.Tags = tags
	} else if e.tags != nil {
		tags, err := e.tags.ReadTags(ctx, f.Path)
		if err != nil {
			e.logger.Debug("tags unavailable",
				zap.Error(domain.NewExtractionError(f.Path, "tags", err)))
		} else {
			signals.Tags = tags
			cached := *tags
			update.Tags = &cached
		}
	}

	if fp, ok := e.cache.Fingerprint(f); ok {
		signals.Fingerprint = fp
	} else if e.fingerprinter != nil && ctx.Err() == nil {
		fp, err := e.fingerprinter.Fingerprint(ctx, f.Path)
		if err != nil || len(fp) == 0 {
			e.logger.Debug("fingerprint unavailable",
				zap.Error(domain.NewExtractionError(f.Path, "fingerprint", err)))
		} else {
			signals.Fingerprint = fp
			update.Fingerprint = fp
			update.FingerprintBackend = e.fingerprinter.Name()
		}
	}

	if update.Tags != nil || update.Fingerprint != nil {
		e.cache.Put(f, update)
	}
	return signals
}
