package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vertextoedge/audio-dedup/internal/domain"
)

// Append stores one journal entry and sets its ID
func (s *Store) Append(ctx context.Context, entry *domain.JournalEntry) error {
	query := `
		INSERT INTO dispositions (run_id, action, path, destination, keeper, size, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx, query,
		entry.RunID, string(entry.Action), entry.Path, entry.Destination,
		entry.Keeper, entry.Size, entry.Error, entry.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = id
	return nil
}

// ListByRun returns the entries of a run in insertion order
func (s *Store) ListByRun(ctx context.Context, runID string) ([]*domain.JournalEntry, error) {
	query := `
		SELECT id, run_id, action, path, destination, keeper, size, error, created_at
		FROM dispositions
		WHERE run_id = ?
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.JournalEntry
	for rows.Next() {
		entry, err := scanJournalEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// FindByDestination returns the most recent successful move that produced path
func (s *Store) FindByDestination(ctx context.Context, path string) (*domain.JournalEntry, error) {
	query := `
		SELECT id, run_id, action, path, destination, keeper, size, error, created_at
		FROM dispositions
		WHERE destination = ? AND action = ? AND error = ''
		ORDER BY id DESC
		LIMIT 1
	`

	entry, err := scanJournalEntry(s.db.QueryRowContext(ctx, query, path, string(domain.ActionMove)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func scanJournalEntry(row rowScanner) (*domain.JournalEntry, error) {
	entry := &domain.JournalEntry{}
	var action string

	err := row.Scan(
		&entry.ID, &entry.RunID, &action, &entry.Path, &entry.Destination,
		&entry.Keeper, &entry.Size, &entry.Error, &entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	entry.Action = domain.Action(action)
	return entry, nil
}
