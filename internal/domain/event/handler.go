package event

import (
	"sync"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// LoggingHandler logs all events
type LoggingHandler struct {
	logger *zap.Logger
}

// NewLoggingHandler creates a new LoggingHandler
func NewLoggingHandler(logger *zap.Logger) *LoggingHandler {
	return &LoggingHandler{logger: logger}
}

// Handle logs the event
func (h *LoggingHandler) Handle(event DomainEvent) error {
	switch e := event.(type) {
	case GroupResolved:
		h.logger.Debug("group resolved",
			zap.Int("group", e.Number),
			zap.String("kind", e.Kind),
			zap.String("keeper", e.Keeper),
			zap.Strings("discards", e.Discards),
		)
	case FileDeleted:
		h.logger.Info("deleted",
			zap.String("path", e.Path),
			zap.String("keeper", e.Keeper),
			zap.String("size", humanize.IBytes(uint64(e.Size))),
		)
	case FileMoved:
		h.logger.Info("moved",
			zap.String("path", e.Path),
			zap.String("destination", e.Destination),
			zap.String("keeper", e.Keeper),
		)
	case DispositionFailed:
		h.logger.Error("disposition failed",
			zap.String("path", e.Path),
			zap.String("action", e.Action),
			zap.String("error", e.Error),
		)
	case ScanCompleted:
		h.logger.Info("scan completed",
			zap.String("root", e.Root),
			zap.Int("files", e.TotalFiles),
			zap.Int("exact_groups", e.ExactGroups),
			zap.Int("fuzzy_groups", e.FuzzyGroups),
			zap.Duration("duration", e.Duration),
		)
	default:
		h.logger.Debug("domain event",
			zap.String("event", event.EventName()),
			zap.Time("occurred_at", event.OccurredAt()),
		)
	}
	return nil
}

// HandledEvents returns the events this handler handles
func (h *LoggingHandler) HandledEvents() []string {
	return []string{"*"} // Handle all events
}

// SummaryHandler tallies disposition events for the end-of-run summary
type SummaryHandler struct {
	mu sync.Mutex

	groups         int64
	filesDeleted   int64
	filesMoved     int64
	failures       int64
	bytesReclaimed int64
	bytesMoved     int64
}

// NewSummaryHandler creates a new SummaryHandler
func NewSummaryHandler() *SummaryHandler {
	return &SummaryHandler{}
}

// Handle updates the counters based on the event
func (h *SummaryHandler) Handle(event DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch e := event.(type) {
	case GroupResolved:
		h.groups++
	case FileDeleted:
		h.filesDeleted++
		h.bytesReclaimed += e.Size
	case FileMoved:
		h.filesMoved++
		h.bytesMoved += e.Size
	case DispositionFailed:
		h.failures++
	}
	return nil
}

// HandledEvents returns the events this handler handles
func (h *SummaryHandler) HandledEvents() []string {
	return []string{
		"group.resolved",
		"file.deleted",
		"file.moved",
		"file.disposition_failed",
	}
}

// GetMetrics returns the current counters
func (h *SummaryHandler) GetMetrics() map[string]int64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	return map[string]int64{
		"groups":          h.groups,
		"files_deleted":   h.filesDeleted,
		"files_moved":     h.filesMoved,
		"failures":        h.failures,
		"bytes_reclaimed": h.bytesReclaimed,
		"bytes_moved":     h.bytesMoved,
	}
}

// Fields returns the counters as zap fields for a single summary line
func (h *SummaryHandler) Fields() []zap.Field {
	m := h.GetMetrics()
	return []zap.Field{
		zap.Int64("groups", m["groups"]),
		zap.Int64("deleted", m["files_deleted"]),
		zap.Int64("moved", m["files_moved"]),
		zap.Int64("failed", m["failures"]),
		zap.String("reclaimed", humanize.IBytes(uint64(m["bytes_reclaimed"]))),
		zap.String("relocated", humanize.IBytes(uint64(m["bytes_moved"]))),
	}
}
