package service

import (
	"sort"

	"github.com/vertextoedge/audio-dedup/internal/domain"
)

// Retention score weights
const (
	CoverWeight   = 1000.0
	LyricsWeight  = 500.0
	QualityFactor = 2.0
)

// Ranker is a domain service that orders duplicate group members by how
// much the operator wants to keep them.
type Ranker struct {
	preferCover   bool
	preferLyrics  bool
	preferQuality bool
}

// NewRanker creates a Ranker from the run preferences
func NewRanker(prefs domain.Preferences) *Ranker {
	return &Ranker{
		preferCover:   prefs.PreferCover,
		preferLyrics:  prefs.PreferLyrics,
		preferQuality: prefs.PreferQuality,
	}
}

// Score calculates the retention score of one member
func (r *Ranker) Score(f domain.RankedFile) float64 {
	var score float64

	if r.preferCover && f.Tags.HasCover {
		score += CoverWeight
	}

	if r.preferLyrics && f.Tags.HasLyrics {
		score += LyricsWeight
	}

	if r.preferQuality {
		score += f.Bitrate.Kbps() * QualityFactor
	} else {
		score += f.File.Size.KB()
	}

	return score
}

// Rank scores every member and returns them keeper-first. The sort is
// stable, so equal scores keep the input order.
func (r *Ranker) Rank(kind domain.GroupKind, files []domain.RankedFile) domain.RankedGroup {
	ranked := make([]domain.RankedFile, len(files))
	copy(ranked, files)

	for i := range ranked {
		ranked[i].Score = r.Score(ranked[i])
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return domain.RankedGroup{Kind: kind, Files: ranked}
}
