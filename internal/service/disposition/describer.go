package disposition

import (
	"context"

	"go.uber.org/zap"

	"github.com/vertextoedge/audio-dedup/internal/domain"
	"github.com/vertextoedge/audio-dedup/internal/domain/vo"
	"github.com/vertextoedge/audio-dedup/internal/port"
)

// Describer gathers the per-member details ranking and reporting need:
// tags and an estimated bitrate. Every lookup degrades to a zero value on
// failure.
type Describer struct {
	tags      port.TagReader
	durations port.DurationDecoder
	logger    *zap.Logger
}

// NewDescriber creates a Describer. Either reader may be nil.
func NewDescriber(tags port.TagReader, durations port.DurationDecoder, logger *zap.Logger) *Describer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Describer{tags: tags, durations: durations, logger: logger}
}

// Describe returns the unscored ranking entry for f. Tags already
// extracted during matching are reused; exact-group members never went
// through extraction and are read here.
func (d *Describer) Describe(ctx context.Context, f *domain.AudioFile) domain.RankedFile {
	rf := domain.RankedFile{File: f, Bitrate: vo.UnknownBitrate()}

	if f.Signals != nil {
		if t := f.Tags(); t != nil {
			rf.Tags = *t
		}
	} else if d.tags != nil {
		t, err := d.tags.ReadTags(ctx, f.Path)
		if err != nil {
			d.logger.Debug("tags unavailable",
				zap.Error(domain.NewExtractionError(f.Path, "tags", err)))
		} else if t != nil {
			rf.Tags = *t
		}
	}

	rf.Bitrate = d.bitrate(ctx, f)
	return rf
}

func (d *Describer) bitrate(ctx context.Context, f *domain.AudioFile) vo.Bitrate {
	if d.durations == nil {
		return vo.UnknownBitrate()
	}
	duration, err := d.durations.Duration(ctx, f.Path)
	if err != nil {
		d.logger.Debug("bitrate unavailable",
			zap.Error(domain.NewExtractionError(f.Path, "duration", err)))
		return vo.UnknownBitrate()
	}
	return vo.EstimateBitrate(f.Size, duration)
}
