package repository

import (
	"context"

	"github.com/vertextoedge/audio-dedup/internal/domain"
)

// JournalRepository records dispositions
type JournalRepository interface {
	// Append stores one journal entry and sets its ID
	Append(ctx context.Context, entry *domain.JournalEntry) error

	// ListByRun returns the entries of a run in insertion order
	ListByRun(ctx context.Context, runID string) ([]*domain.JournalEntry, error)

	// FindByDestination returns the most recent move that produced path.
	// Returns domain.ErrNotFound if no move ended there.
	FindByDestination(ctx context.Context, path string) (*domain.JournalEntry, error)
}
