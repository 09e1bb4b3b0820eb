package domain

import "github.com/vertextoedge/audio-dedup/internal/domain/vo"

// GroupKind tells which stage produced a duplicate group
type GroupKind string

const (
	GroupExact GroupKind = "exact" // byte-identical content
	GroupFuzzy GroupKind = "fuzzy" // filename, tag or fingerprint similarity
)

// DuplicateGroup is an ordered set of files believed to hold the same music.
// Every group has at least two members and a file belongs to at most one
// group per run.
type DuplicateGroup struct {
	Kind  GroupKind
	Files []*AudioFile
}

// NewDuplicateGroup creates a group. It returns ErrGroupTooSmall for fewer
// than two members.
func NewDuplicateGroup(kind GroupKind, files []*AudioFile) (*DuplicateGroup, error) {
	if len(files) < 2 {
		return nil, ErrGroupTooSmall
	}
	return &DuplicateGroup{Kind: kind, Files: files}, nil
}

// Len returns the number of members
func (g *DuplicateGroup) Len() int {
	return len(g.Files)
}

// Anchor returns the first member in group order
func (g *DuplicateGroup) Anchor() *AudioFile {
	return g.Files[0]
}

// Paths returns member paths in group order
func (g *DuplicateGroup) Paths() []string {
	paths := make([]string, len(g.Files))
	for i, f := range g.Files {
		paths[i] = f.Path
	}
	return paths
}

// TotalSize returns the summed size of all members
func (g *DuplicateGroup) TotalSize() vo.FileSize {
	total := vo.ZeroSize()
	for _, f := range g.Files {
		total = total.Add(f.Size)
	}
	return total
}

// RankedFile is a group member with its retention score and the details
// shown in the group report.
type RankedFile struct {
	File    *AudioFile
	Score   float64
	Tags    TagInfo
	Bitrate vo.Bitrate
}

// RankedGroup is a group ordered keeper-first
type RankedGroup struct {
	Kind  GroupKind
	Files []RankedFile
}

// Keeper returns the file selected for retention
func (g *RankedGroup) Keeper() RankedFile {
	return g.Files[0]
}

// Discards returns every member except the keeper
func (g *RankedGroup) Discards() []RankedFile {
	if len(g.Files) < 2 {
		return nil
	}
	return g.Files[1:]
}
