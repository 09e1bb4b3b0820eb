package maintenance

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/audio-dedup/internal/adapter/filesystem"
	"github.com/vertextoedge/audio-dedup/internal/domain"
)

// mockSignalRepository implements port.SignalRepository for testing
type mockSignalRepository struct {
	mu        sync.Mutex
	entries   map[string]bool
	listErr   error
	deleteErr error
}

func newMockSignalRepository(paths ...string) *mockSignalRepository {
	m := &mockSignalRepository{entries: make(map[string]bool)}
	for _, p := range paths {
		m.entries[p] = true
	}
	return m
}

func (m *mockSignalRepository) GetSignals(ctx context.Context, path string) (*domain.CachedSignals, error) {
	return nil, domain.ErrNotFound
}
func (m *mockSignalRepository) GetSignalsBatch(ctx context.Context, paths []string) (map[string]*domain.CachedSignals, error) {
	return nil, nil
}
func (m *mockSignalRepository) SaveSignals(ctx context.Context, entry *domain.CachedSignals) error {
	return nil
}
func (m *mockSignalRepository) DeleteSignals(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.entries, path)
	return nil
}
func (m *mockSignalRepository) ListSignalPaths(ctx context.Context, root string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var paths []string
	for p := range m.entries {
		if strings.HasPrefix(p, root) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}
func (m *mockSignalRepository) CountSignals(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.entries)), nil
}

func touch(t *testing.T, path string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestService_New(t *testing.T) {
	logger := zap.NewNop()

	// Test with nil config (should use defaults)
	s := New(nil, nil, filesystem.NewManager(nil), logger)
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if !s.config.PruneCache {
		t.Error("PruneCache should default to true")
	}
	if s.partials == nil {
		t.Error("filesystem manager should be used as partial cleaner")
	}
}

func TestService_PrunesVanishedFiles(t *testing.T) {
	dir := t.TempDir()
	kept := touch(t, filepath.Join(dir, "music", "a.mp3"))
	gone := filepath.Join(dir, "music", "b.mp3")
	outside := filepath.Join(t.TempDir(), "c.mp3")

	repo := newMockSignalRepository(kept, gone, outside)
	s := New(nil, repo, filesystem.NewManager(nil), zap.NewNop())

	report, err := s.Run(context.Background(), filepath.Join(dir, "music"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.PrunedEntries != 1 {
		t.Errorf("PrunedEntries = %d, want 1", report.PrunedEntries)
	}
	if !repo.entries[kept] {
		t.Error("entry of an existing file was pruned")
	}
	if repo.entries[gone] {
		t.Error("entry of a vanished file was kept")
	}
	if !repo.entries[outside] {
		t.Error("entry outside the root was pruned")
	}
}

func TestService_PrunesUnderRelativeRoot(t *testing.T) {
	dir := t.TempDir()
	gone := filepath.Join(dir, "music", "b.mp3")
	touch(t, filepath.Join(dir, "music", "a.mp3"))

	repo := newMockSignalRepository(gone)
	s := New(nil, repo, filesystem.NewManager(nil), zap.NewNop())

	t.Chdir(dir)
	report, err := s.Run(context.Background(), "music")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.PrunedEntries != 1 {
		t.Errorf("PrunedEntries = %d, want 1", report.PrunedEntries)
	}
	if repo.entries[gone] {
		t.Error("entry of a vanished file was kept")
	}
}

func TestService_PruneErrorsAreLogged(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		repo *mockSignalRepository
	}{
		{
			name: "list fails",
			repo: func() *mockSignalRepository {
				m := newMockSignalRepository(filepath.Join(dir, "x.mp3"))
				m.listErr = errors.New("database is locked")
				return m
			}(),
		},
		{
			name: "delete fails",
			repo: func() *mockSignalRepository {
				m := newMockSignalRepository(filepath.Join(dir, "x.mp3"))
				m.deleteErr = errors.New("readonly database")
				return m
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(nil, tt.repo, filesystem.NewManager(nil), zap.NewNop())
			report, err := s.Run(context.Background(), dir)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if report.PrunedEntries != 0 {
				t.Errorf("PrunedEntries = %d, want 0", report.PrunedEntries)
			}
		})
	}
}

func TestService_CleansPartialFiles(t *testing.T) {
	out := t.TempDir()
	touch(t, filepath.Join(out, "b.mp3.partial"))
	touch(t, filepath.Join(out, "c.flac.partial"))
	touch(t, filepath.Join(out, "b.mp3"))

	cfg := &Config{PartialDirs: []string{out, filepath.Join(out, "missing")}}
	s := New(cfg, nil, filesystem.NewManager(nil), zap.NewNop())

	report, err := s.Run(context.Background(), out)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.PartialFiles != 2 {
		t.Errorf("PartialFiles = %d, want 2", report.PartialFiles)
	}
	if _, err := os.Stat(filepath.Join(out, "b.mp3")); err != nil {
		t.Errorf("completed move was removed: %v", err)
	}
}

func TestService_Cancelled(t *testing.T) {
	dir := t.TempDir()
	repo := newMockSignalRepository(filepath.Join(dir, "a.mp3"), filepath.Join(dir, "b.mp3"))
	s := New(nil, repo, filesystem.NewManager(nil), zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := s.Run(ctx, dir)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want deadline exceeded", err)
	}
	if len(repo.entries) != 2 {
		t.Errorf("entries pruned after cancellation: %d left", len(repo.entries))
	}
}
