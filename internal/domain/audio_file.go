package domain

import (
	"time"

	"github.com/vertextoedge/audio-dedup/internal/domain/vo"
)

// AudioFile represents one discovered audio file for the duration of a run.
// Path is the unique key; Index is the discovery order and drives every
// order-sensitive decision downstream.
type AudioFile struct {
	Path    string
	Index   int
	Size    vo.FileSize
	ModTime time.Time

	// Hash is the hex content hash. It is only computed for files that
	// share their size with at least one other file.
	Hash string

	// Signals is nil until the file reaches fuzzy matching.
	Signals *Signals
}

// NewAudioFile creates an AudioFile from a stat result.
func NewAudioFile(path string, index int, size int64, modTime time.Time) *AudioFile {
	fs, err := vo.NewFileSize(size)
	if err != nil {
		fs = vo.ZeroSize()
	}
	return &AudioFile{
		Path:    path,
		Index:   index,
		Size:    fs,
		ModTime: modTime,
	}
}

// FilePath returns the path as a value object.
func (f *AudioFile) FilePath() vo.FilePath {
	return vo.MustFilePath(f.Path)
}

// HasHash reports whether a content hash was computed.
func (f *AudioFile) HasHash() bool {
	return f.Hash != ""
}

// Tags returns the extracted tag info, or nil if tags were never read or
// could not be read.
func (f *AudioFile) Tags() *TagInfo {
	if f.Signals == nil {
		return nil
	}
	return f.Signals.Tags
}

// ArtistTitle is one candidate role assignment parsed from a filename.
type ArtistTitle struct {
	Artist string
	Title  string
}

// Swapped returns the candidate with artist and title exchanged.
func (at ArtistTitle) Swapped() ArtistTitle {
	return ArtistTitle{Artist: at.Title, Title: at.Artist}
}

// TagInfo is the subset of tag metadata used for matching and ranking.
type TagInfo struct {
	Artist    string
	Title     string
	HasCover  bool
	HasLyrics bool
}

// HasIdentity reports whether both artist and title are present.
func (t *TagInfo) HasIdentity() bool {
	return t != nil && t.Artist != "" && t.Title != ""
}

// Signals holds the comparison features extracted for a residual file.
// A nil Tags or Fingerprint means that signal is absent and disables the
// comparisons depending on it.
type Signals struct {
	NormalizedName string
	Candidates     []ArtistTitle
	Tags           *TagInfo
	Fingerprint    []float64
}

// HasFingerprint reports whether a usable fingerprint is present.
func (s *Signals) HasFingerprint() bool {
	return s != nil && len(s.Fingerprint) > 0
}

// ScanStats summarizes a duplicate search
type ScanStats struct {
	TotalFiles    int
	HashedFiles   int
	ExactGroups   int
	FuzzyGroups   int
	ResidualFiles int
	Duration      time.Duration
}
