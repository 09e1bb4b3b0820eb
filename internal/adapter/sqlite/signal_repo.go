package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/vertextoedge/audio-dedup/internal/domain"
)

// batchSize keeps IN (...) lists below SQLite's parameter limit
const batchSize = 500

const signalColumns = `path, size, mod_time, hash, tags_ok, artist, title, has_cover, has_lyrics,
	fingerprint, fingerprint_backend, updated_at`

// GetSignals retrieves the cached signals for a path
func (s *Store) GetSignals(ctx context.Context, path string) (*domain.CachedSignals, error) {
	query := `SELECT ` + signalColumns + ` FROM signals WHERE path = ?`

	entry, err := scanSignals(s.db.QueryRowContext(ctx, query, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetSignalsBatch retrieves cached signals for many paths at once
func (s *Store) GetSignalsBatch(ctx context.Context, paths []string) (map[string]*domain.CachedSignals, error) {
	result := make(map[string]*domain.CachedSignals, len(paths))

	for start := 0; start < len(paths); start += batchSize {
		end := min(start+batchSize, len(paths))
		chunk := paths[start:end]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		query := `SELECT ` + signalColumns + ` FROM signals WHERE path IN (` + placeholders + `)`

		args := make([]interface{}, len(chunk))
		for i, p := range chunk {
			args[i] = p
		}

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}

		for rows.Next() {
			entry, err := scanSignals(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			result[entry.Path] = entry
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	return result, nil
}

// SaveSignals inserts or replaces the entry for entry.Path
func (s *Store) SaveSignals(ctx context.Context, entry *domain.CachedSignals) error {
	if entry == nil || entry.Path == "" {
		return fmt.Errorf("%w: signals entry without path", domain.ErrInvalidInput)
	}

	query := `
		INSERT INTO signals (` + signalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			mod_time = excluded.mod_time,
			hash = excluded.hash,
			tags_ok = excluded.tags_ok,
			artist = excluded.artist,
			title = excluded.title,
			has_cover = excluded.has_cover,
			has_lyrics = excluded.has_lyrics,
			fingerprint = excluded.fingerprint,
			fingerprint_backend = excluded.fingerprint_backend,
			updated_at = excluded.updated_at
	`

	var tags domain.TagInfo
	if entry.Tags != nil {
		tags = *entry.Tags
	}

	now := time.Now()
	_, err := s.db.ExecContext(ctx, query,
		entry.Path, entry.Size, entry.ModTime.UnixNano(), entry.Hash,
		entry.Tags != nil, tags.Artist, tags.Title, tags.HasCover, tags.HasLyrics,
		encodeFingerprint(entry.Fingerprint), entry.FingerprintBackend, now,
	)
	if err != nil {
		return err
	}

	entry.UpdatedAt = now
	return nil
}

// DeleteSignals removes the entry for a path
func (s *Store) DeleteSignals(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM signals WHERE path = ?`, path)
	return err
}

// ListSignalPaths returns every cached path under root, sorted
func (s *Store) ListSignalPaths(ctx context.Context, root string) ([]string, error) {
	root = filepath.Clean(root)
	prefix := strings.TrimSuffix(root, string(filepath.Separator)) + string(filepath.Separator)

	query := `SELECT path FROM signals WHERE path = ? OR path LIKE ? ESCAPE '\' ORDER BY path`
	rows, err := s.db.QueryContext(ctx, query, root, escapeLike(prefix)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// CountSignals returns the number of cached entries
func (s *Store) CountSignals(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM signals`).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSignals(row rowScanner) (*domain.CachedSignals, error) {
	entry := &domain.CachedSignals{}
	var (
		modTime   int64
		tagsOK    bool
		tags      domain.TagInfo
		blob      []byte
		updatedAt sql.NullTime
	)

	err := row.Scan(
		&entry.Path, &entry.Size, &modTime, &entry.Hash,
		&tagsOK, &tags.Artist, &tags.Title, &tags.HasCover, &tags.HasLyrics,
		&blob, &entry.FingerprintBackend, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.ModTime = time.Unix(0, modTime)
	if tagsOK {
		entry.Tags = &tags
	}
	entry.Fingerprint = decodeFingerprint(blob)
	if updatedAt.Valid {
		entry.UpdatedAt = updatedAt.Time
	}
	return entry, nil
}

// encodeFingerprint packs values as little-endian float64; nil stays NULL
func encodeFingerprint(fp []float64) []byte {
	if fp == nil {
		return nil
	}
	buf := make([]byte, 8*len(fp))
	for i, v := range fp {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func decodeFingerprint(blob []byte) []float64 {
	if blob == nil {
		return nil
	}
	fp := make([]float64, len(blob)/8)
	for i := range fp {
		fp[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return fp
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
