package dedup

import (
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/audio-dedup/internal/util/progress"
)

const defaultProgressInterval = 5 * time.Second

// Progress configures how a stage reports progress
type Progress struct {
	// Interval is the minimum time between progress log lines
	Interval time.Duration

	// Output receives a progress bar; nil disables it
	Output io.Writer
}

func (p Progress) reporter(stage string, total int, logger *zap.Logger) *progress.Reporter {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultProgressInterval
	}

	var opts []progress.Option
	if p.Output != nil {
		opts = append(opts, progress.WithBar(p.Output))
	}
	return progress.New(stage, total, interval, logger, opts...)
}
