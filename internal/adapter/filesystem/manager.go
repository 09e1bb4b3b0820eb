package filesystem

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vertextoedge/audio-dedup/internal/domain"
	"github.com/vertextoedge/audio-dedup/internal/domain/vo"
	"github.com/vertextoedge/audio-dedup/internal/port"
)

// DefaultExtensions are the audio file extensions enumerated by default
var DefaultExtensions = []string{".mp3", ".flac", ".wav", ".m4a", ".aac", ".ogg", ".wma", ".ape", ".opus"}

// maxSuffix bounds the numeric suffix search when a destination name is taken
const maxSuffix = 100000

// partialSuffix marks a cross-device copy that has not been renamed yet
const partialSuffix = ".partial"

// Manager handles local filesystem operations
type Manager struct {
	extensions map[string]struct{}
	bufferSize int
	skipHidden bool
}

// Ensure Manager implements port.FileSystem
var _ port.FileSystem = (*Manager)(nil)

// Option configures a Manager
type Option func(*Manager)

// WithBufferSize sets the read buffer used for hashing and copying
func WithBufferSize(size int) Option {
	return func(m *Manager) {
		if size > 0 {
			m.bufferSize = size
		}
	}
}

// WithSkipHidden skips files and directories whose name starts with a dot
func WithSkipHidden(skip bool) Option {
	return func(m *Manager) {
		m.skipHidden = skip
	}
}

// NewManager creates a filesystem manager that enumerates the given
// extensions (case-insensitive). An empty list means DefaultExtensions.
func NewManager(extensions []string, opts ...Option) *Manager {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	m := &Manager{
		extensions: make(map[string]struct{}, len(extensions)),
		bufferSize: 1024 * 1024, // 1MB default
	}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		m.extensions[ext] = struct{}{}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IsAudioFile reports whether path has one of the enumerated extensions
func (m *Manager) IsAudioFile(path string) bool {
	_, ok := m.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Enumerate walks root in lexical order and returns every audio file.
// Unreadable subdirectories are skipped rather than failing the walk.
func (m *Manager) Enumerate(ctx context.Context, root string) ([]port.FileInfo, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", root, domain.ErrNotDirectory)
	}

	var files []port.FileInfo
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path != root && d != nil && d.IsDir() {
				return fs.SkipDir
			}
			if path == root {
				return err
			}
			return nil
		}
		if m.skipHidden && path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() || !m.IsAudioFile(path) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, port.FileInfo{Path: path, Size: fi.Size(), ModTime: fi.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s: %w", root, err)
	}
	return files, nil
}

// Stat returns size and modification time of a file
func (m *Manager) Stat(path string) (port.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return port.FileInfo{}, err
	}
	return port.FileInfo{Path: path, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// HashFile streams the file through MD5 and returns the hex digest
func (m *Manager) HashFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer f.Close()

	h := md5.New()
	buf := make([]byte, m.bufferSize)
	if _, err := io.CopyBuffer(h, &ctxReader{ctx: ctx, r: f}, buf); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DeleteFile removes a file
func (m *Manager) DeleteFile(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// MoveFile relocates src into destDir. A taken name gets the first free
// numeric suffix: b.mp3, b_1.mp3, b_2.mp3, ...
func (m *Manager) MoveFile(src, destDir string) (string, error) {
	if err := m.EnsureDir(destDir); err != nil {
		return "", fmt.Errorf("failed to create destination dir: %w", err)
	}

	dest, err := m.UniquePath(filepath.Join(destDir, filepath.Base(src)))
	if err != nil {
		return "", err
	}

	if err := os.Rename(src, dest); err == nil {
		return dest, nil
	} else if !isCrossDevice(err) {
		return "", fmt.Errorf("failed to move file: %w", err)
	}

	// Different filesystem: copy through a temp name, then remove the source
	if err := m.copyFile(src, dest); err != nil {
		return "", err
	}
	if err := os.Remove(src); err != nil {
		return dest, fmt.Errorf("copied to %s but failed to remove source: %w", dest, err)
	}
	return dest, nil
}

// UniquePath returns path itself if it does not exist, otherwise the first
// numbered sibling that does not exist
func (m *Manager) UniquePath(path string) (string, error) {
	if !m.FileExists(path) {
		return path, nil
	}
	fp, err := vo.NewFilePath(path)
	if err != nil {
		return "", err
	}
	for n := 1; n <= maxSuffix; n++ {
		candidate := fp.Numbered(n).String()
		if !m.FileExists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s: %w", path, domain.ErrNoFreeName)
}

func (m *Manager) copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}

	if usage, err := m.GetDiskUsage(filepath.Dir(dest)); err == nil && usage.Free < uint64(info.Size()) {
		return fmt.Errorf("not enough free space for %s (%s free): %w",
			vo.MustFileSize(info.Size()), vo.MustFileSize(int64(usage.Free)), domain.ErrDisposition)
	}

	tempPath := dest + partialSuffix
	out, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	buf := make([]byte, m.bufferSize)
	if _, err := io.CopyBuffer(out, in, buf); err != nil {
		out.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to copy file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tempPath, dest); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	_ = os.Chtimes(dest, info.ModTime(), info.ModTime())
	return nil
}

// FileExists checks if a file exists
func (m *Manager) FileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// EnsureDir creates a directory and its parents
func (m *Manager) EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// CleanPartialFiles removes leftover temp files of interrupted cross-device
// moves in dir. Returns the number of files deleted.
func (m *Manager) CleanPartialFiles(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), partialSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err == nil {
			count++
		}
	}
	return count, nil
}

// ctxReader aborts a long read when the context is cancelled
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
