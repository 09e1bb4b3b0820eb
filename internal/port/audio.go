package port

import (
	"context"
	"time"

	"github.com/vertextoedge/audio-dedup/internal/domain"
)

// TagReader reads the tag subset used for matching and ranking
type TagReader interface {
	// ReadTags returns artist, title and cover/lyrics presence.
	// An error means the tags are absent for this run.
	ReadTags(ctx context.Context, path string) (*domain.TagInfo, error)
}

// Fingerprinter turns decoded audio into a numeric feature sequence
type Fingerprinter interface {
	// Name identifies the backend; cached fingerprints are only reused
	// by the backend that produced them
	Name() string

	// Fingerprint returns the feature sequence, or an error if the audio
	// could not be decoded
	Fingerprint(ctx context.Context, path string) ([]float64, error)
}

// DurationDecoder measures playback duration
type DurationDecoder interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}
