package port

import (
	"context"
	"time"
)

// DiskUsage represents disk usage statistics
type DiskUsage struct {
	Total   uint64  // Total disk space in bytes
	Used    uint64  // Used disk space in bytes
	Free    uint64  // Free disk space in bytes
	UsedPct float64 // Used percentage (0-100)
}

// FileInfo is the stat result of one discovered file
type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// FileSystem defines the interface for filesystem operations
type FileSystem interface {
	// Enumerate walks root recursively and returns every audio file in a
	// deterministic discovery order
	Enumerate(ctx context.Context, root string) ([]FileInfo, error)

	// Stat returns size and modification time of a file
	Stat(path string) (FileInfo, error)

	// HashFile returns the hex content hash of a file, streaming its bytes
	HashFile(ctx context.Context, path string) (string, error)

	// DeleteFile removes a file
	DeleteFile(path string) error

	// MoveFile relocates src into destDir, appending _N before the
	// extension when the name is taken. Returns the final path.
	MoveFile(src, destDir string) (string, error)

	// FileExists checks if a file exists
	FileExists(path string) bool

	// EnsureDir creates a directory and its parents
	EnsureDir(dir string) error

	// GetDiskUsage returns disk usage statistics for the filesystem holding path
	GetDiskUsage(path string) (*DiskUsage, error)
}
