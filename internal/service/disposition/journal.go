package disposition

import (
	"context"
	"time"

	"github.com/vertextoedge/audio-dedup/internal/domain"
	"github.com/vertextoedge/audio-dedup/internal/domain/event"
	"github.com/vertextoedge/audio-dedup/internal/port"
)

// JournalHandler appends every move, delete and failure to the journal so
// a moved file can be traced back to where it came from.
type JournalHandler struct {
	repo    port.JournalRepository
	timeout time.Duration
}

// NewJournalHandler creates a new JournalHandler
func NewJournalHandler(repo port.JournalRepository) *JournalHandler {
	return &JournalHandler{repo: repo, timeout: 5 * time.Second}
}

// Handle records the event
func (h *JournalHandler) Handle(ev event.DomainEvent) error {
	var entry *domain.JournalEntry

	switch e := ev.(type) {
	case event.FileDeleted:
		entry = &domain.JournalEntry{
			RunID:  e.RunID,
			Action: domain.ActionDelete,
			Path:   e.Path,
			Keeper: e.Keeper,
			Size:   e.Size,
		}
	case event.FileMoved:
		entry = &domain.JournalEntry{
			RunID:       e.RunID,
			Action:      domain.ActionMove,
			Path:        e.Path,
			Destination: e.Destination,
			Keeper:      e.Keeper,
			Size:        e.Size,
		}
	case event.DispositionFailed:
		entry = &domain.JournalEntry{
			RunID:  e.RunID,
			Action: domain.Action(e.Action),
			Path:   e.Path,
			Error:  e.Error,
		}
	default:
		return nil
	}
	entry.CreatedAt = ev.OccurredAt()

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	return h.repo.Append(ctx, entry)
}

// HandledEvents returns the events this handler handles
func (h *JournalHandler) HandledEvents() []string {
	return []string{
		event.FileDeleted{}.EventName(),
		event.FileMoved{}.EventName(),
		event.DispositionFailed{}.EventName(),
	}
}
