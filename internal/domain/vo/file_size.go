package vo

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

// FileSize represents a file size value object.
// It provides type-safe operations and human-readable formatting.
type FileSize struct {
	bytes int64
}

const (
	KB int64 = 1024
	MB int64 = 1024 * KB
)

var (
	ErrNegativeSize = errors.New("file size cannot be negative")
)

// NewFileSize creates a new FileSize value object.
func NewFileSize(bytes int64) (FileSize, error) {
	if bytes < 0 {
		return FileSize{}, ErrNegativeSize
	}
	return FileSize{bytes: bytes}, nil
}

// MustFileSize creates a new FileSize, panicking if invalid.
func MustFileSize(bytes int64) FileSize {
	fs, err := NewFileSize(bytes)
	if err != nil {
		panic(err)
	}
	return fs
}

// ZeroSize returns a zero FileSize.
func ZeroSize() FileSize {
	return FileSize{bytes: 0}
}

// Bytes returns the size in bytes.
func (fs FileSize) Bytes() int64 {
	return fs.bytes
}

// Bits returns the size in bits.
func (fs FileSize) Bits() float64 {
	return float64(fs.bytes) * 8
}

// KB returns the size in kilobytes.
func (fs FileSize) KB() float64 {
	return float64(fs.bytes) / float64(KB)
}

// MB returns the size in megabytes.
func (fs FileSize) MB() float64 {
	return float64(fs.bytes) / float64(MB)
}

// IsZero returns true if the size is zero.
func (fs FileSize) IsZero() bool {
	return fs.bytes == 0
}

// Add returns a new FileSize with the given size added.
func (fs FileSize) Add(other FileSize) FileSize {
	return FileSize{bytes: fs.bytes + other.bytes}
}

// Equals returns true if both sizes are equal.
func (fs FileSize) Equals(other FileSize) bool {
	return fs.bytes == other.bytes
}

// MBString formats the size the way group reports show it ("3.52 MB").
func (fs FileSize) MBString() string {
	return fmt.Sprintf("%.2f MB", fs.MB())
}

// String returns a human-readable string representation.
func (fs FileSize) String() string {
	return humanize.IBytes(uint64(fs.bytes))
}
