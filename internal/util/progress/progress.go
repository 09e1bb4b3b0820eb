package progress

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"go.uber.org/zap"

	"github.com/vertextoedge/audio-dedup/internal/util/ratelimiter"
)

// Reporter tracks progress of one pipeline stage. It always writes
// throttled log lines and can additionally draw a terminal progress bar.
type Reporter struct {
	stage   string
	total   int
	done    atomic.Int64
	limiter *ratelimiter.Limiter
	logger  *zap.Logger

	container *mpb.Progress
	bar       *mpb.Bar
	finish    sync.Once
}

// Option configures a Reporter
type Option func(*Reporter)

// WithBar draws a progress bar on w. Stages with an unknown total never
// draw one.
func WithBar(w io.Writer) Option {
	return func(r *Reporter) {
		if w == nil || r.total <= 0 {
			return
		}
		r.container = mpb.New(mpb.WithWidth(64), mpb.WithOutput(w))
		r.bar = r.container.AddBar(int64(r.total),
			mpb.PrependDecorators(
				decor.Name(r.stage+": "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
			),
		)
	}
}

// New creates a reporter logging at most once per interval.
func New(stage string, total int, interval time.Duration, logger *zap.Logger, opts ...Option) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reporter{
		stage:   stage,
		total:   total,
		limiter: ratelimiter.New(interval),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Increment records one finished item
func (r *Reporter) Increment() {
	done := r.done.Add(1)
	if r.bar != nil {
		r.bar.Increment()
	}
	r.limiter.Do(func() {
		r.logger.Info("progress",
			zap.String("stage", r.stage),
			zap.Int64("done", done),
			zap.Int("total", r.total))
	})
}

// Done returns the number of finished items
func (r *Reporter) Done() int {
	return int(r.done.Load())
}

// Finish stops the bar, dropping it if the stage was interrupted, and waits
// for the final render. It is safe to call more than once.
func (r *Reporter) Finish() {
	r.finish.Do(func() {
		if r.container == nil {
			return
		}
		if !r.bar.Completed() {
			r.bar.Abort(false)
		}
		r.container.Wait()
	})
}
