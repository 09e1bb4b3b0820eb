package vo

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// FilePath represents a file path value object.
// It keeps the path in OS form so it can be handed straight to the filesystem.
type FilePath struct {
	value string
}

var (
	ErrEmptyPath = errors.New("file path cannot be empty")
)

// NewFilePath creates a new FilePath value object.
func NewFilePath(path string) (FilePath, error) {
	if path == "" {
		return FilePath{}, ErrEmptyPath
	}
	return FilePath{value: filepath.Clean(path)}, nil
}

// MustFilePath creates a new FilePath, panicking if invalid.
// Use only when path is known to be valid.
func MustFilePath(path string) FilePath {
	fp, err := NewFilePath(path)
	if err != nil {
		panic(err)
	}
	return fp
}

// String returns the string representation of the path.
func (fp FilePath) String() string {
	return fp.value
}

// IsEmpty returns true if the path is empty.
func (fp FilePath) IsEmpty() bool {
	return fp.value == ""
}

// FileName returns the base name of the file.
func (fp FilePath) FileName() string {
	return filepath.Base(fp.value)
}

// Extension returns the file extension (including the dot).
// Leading dots of a hidden file name are not an extension.
func (fp FilePath) Extension() string {
	name := fp.FileName()
	if strings.TrimLeft(name, ".") == strings.TrimLeft(filepath.Ext(name), ".") {
		return ""
	}
	return filepath.Ext(name)
}

// Stem returns the base name without its extension.
func (fp FilePath) Stem() string {
	return strings.TrimSuffix(fp.FileName(), fp.Extension())
}

// Dir returns the directory part of the path.
func (fp FilePath) Dir() FilePath {
	return FilePath{value: filepath.Dir(fp.value)}
}

// Join appends path elements to the current path.
func (fp FilePath) Join(elem ...string) FilePath {
	parts := append([]string{fp.value}, elem...)
	return FilePath{value: filepath.Join(parts...)}
}

// Numbered returns the sibling path with "_n" inserted before the extension,
// e.g. "dir/b.mp3" -> "dir/b_1.mp3".
func (fp FilePath) Numbered(n int) FilePath {
	name := fmt.Sprintf("%s_%d%s", fp.Stem(), n, fp.Extension())
	return fp.Dir().Join(name)
}

// Equals checks if two paths are equal.
func (fp FilePath) Equals(other FilePath) bool {
	return fp.value == other.value
}
