package dedup

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vertextoedge/audio-dedup/internal/domain"
	"github.com/vertextoedge/audio-dedup/internal/port"
)

var testModTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// fakeFS is an in-memory port.FileSystem
type fakeFS struct {
	mu        sync.Mutex
	order     []string
	content   map[string][]byte
	hashErr   map[string]error
	hashCalls map[string]int
	enumErr   error
}

func newFakeFS() *fakeFS {
	return &fakeFS{
		content:   make(map[string][]byte),
		hashErr:   make(map[string]error),
		hashCalls: make(map[string]int),
	}
}

func (f *fakeFS) add(path, content string) *fakeFS {
	f.order = append(f.order, path)
	f.content[path] = []byte(content)
	return f
}

func (f *fakeFS) Enumerate(ctx context.Context, root string) ([]port.FileInfo, error) {
	if f.enumErr != nil {
		return nil, f.enumErr
	}
	infos := make([]port.FileInfo, 0, len(f.order))
	for _, p := range f.order {
		infos = append(infos, port.FileInfo{Path: p, Size: int64(len(f.content[p])), ModTime: testModTime})
	}
	return infos, nil
}

func (f *fakeFS) Stat(path string) (port.FileInfo, error) {
	c, ok := f.content[path]
	if !ok {
		return port.FileInfo{}, domain.ErrNotFound
	}
	return port.FileInfo{Path: path, Size: int64(len(c)), ModTime: testModTime}, nil
}

func (f *fakeFS) HashFile(ctx context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hashCalls[path]++
	if err := f.hashErr[path]; err != nil {
		return "", err
	}
	sum := md5.Sum(f.content[path])
	return hex.EncodeToString(sum[:]), nil
}

func (f *fakeFS) calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hashCalls[path]
}

func (f *fakeFS) DeleteFile(path string) error                { return nil }
func (f *fakeFS) MoveFile(src, destDir string) (string, error) { return "", nil }
func (f *fakeFS) FileExists(path string) bool                  { _, ok := f.content[path]; return ok }
func (f *fakeFS) EnsureDir(dir string) error                   { return nil }
func (f *fakeFS) GetDiskUsage(path string) (*port.DiskUsage, error) {
	return &port.DiskUsage{}, nil
}

// files builds AudioFiles in fake discovery order
func (f *fakeFS) files() []*domain.AudioFile {
	out := make([]*domain.AudioFile, len(f.order))
	for i, p := range f.order {
		out[i] = domain.NewAudioFile(p, i, int64(len(f.content[p])), testModTime)
	}
	return out
}

// fakeTagReader returns fixed tags; unknown paths fail
type fakeTagReader struct {
	mu    sync.Mutex
	tags  map[string]*domain.TagInfo
	calls int
}

func (r *fakeTagReader) ReadTags(ctx context.Context, path string) (*domain.TagInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	t, ok := r.tags[path]
	if !ok {
		return nil, errors.New("no tag block")
	}
	c := *t
	return &c, nil
}

// fakeFingerprinter returns fixed vectors; unknown paths fail
type fakeFingerprinter struct {
	mu    sync.Mutex
	name  string
	fps   map[string][]float64
	calls int
}

func (f *fakeFingerprinter) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeFingerprinter) Fingerprint(ctx context.Context, path string) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	fp, ok := f.fps[path]
	if !ok {
		return nil, domain.ErrNoAudio
	}
	return fp, nil
}

// memSignalRepo is an in-memory port.SignalRepository
type memSignalRepo struct {
	mu      sync.Mutex
	entries map[string]*domain.CachedSignals
	saves   int
	loadErr error
}

func newMemSignalRepo() *memSignalRepo {
	return &memSignalRepo{entries: make(map[string]*domain.CachedSignals)}
}

func (r *memSignalRepo) GetSignals(ctx context.Context, path string) (*domain.CachedSignals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *e
	return &c, nil
}

func (r *memSignalRepo) GetSignalsBatch(ctx context.Context, paths []string) (map[string]*domain.CachedSignals, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	out := make(map[string]*domain.CachedSignals)
	for _, p := range paths {
		if e, err := r.GetSignals(ctx, p); err == nil {
			out[p] = e
		}
	}
	return out, nil
}

func (r *memSignalRepo) SaveSignals(ctx context.Context, entry *domain.CachedSignals) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *entry
	r.entries[entry.Path] = &c
	r.saves++
	return nil
}

func (r *memSignalRepo) DeleteSignals(ctx context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, path)
	return nil
}

func (r *memSignalRepo) ListSignalPaths(ctx context.Context, root string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var paths []string
	for p := range r.entries {
		if strings.HasPrefix(p, root) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (r *memSignalRepo) CountSignals(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.entries)), nil
}

// withSignals builds a residual file with explicit signals
func withSignals(index int, path string, tags *domain.TagInfo, fp []float64) *domain.AudioFile {
	f := domain.NewAudioFile(path, index, 1000+int64(index), testModTime)
	f.Signals = &domain.Signals{
		NormalizedName: fmt.Sprintf("n%03d", index),
		Candidates:     []domain.ArtistTitle{{Artist: path}, {Title: path}},
		Tags:           tags,
		Fingerprint:    fp,
	}
	return f
}

func groupPaths(groups []*domain.DuplicateGroup) [][]string {
	out := make([][]string, len(groups))
	for i, g := range groups {
		out[i] = g.Paths()
	}
	return out
}
