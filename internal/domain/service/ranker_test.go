package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertextoedge/audio-dedup/internal/domain"
	"github.com/vertextoedge/audio-dedup/internal/domain/vo"
)

func rankedFile(path string, index int, size int64, tags domain.TagInfo, kbps float64) domain.RankedFile {
	return domain.RankedFile{
		File:    domain.NewAudioFile(path, index, size, time.Time{}),
		Tags:    tags,
		Bitrate: vo.NewBitrate(kbps),
	}
}

func paths(g domain.RankedGroup) []string {
	out := make([]string, len(g.Files))
	for i, f := range g.Files {
		out[i] = f.File.Path
	}
	return out
}

func TestRanker_Score(t *testing.T) {
	f := rankedFile("a.mp3", 0, 2048*1024, domain.TagInfo{HasCover: true, HasLyrics: true}, 320)

	tests := []struct {
		name  string
		prefs domain.Preferences
		want  float64
	}{
		{"size only", domain.Preferences{}, 2048},
		{"cover", domain.Preferences{PreferCover: true}, 1000 + 2048},
		{"lyrics", domain.Preferences{PreferLyrics: true}, 500 + 2048},
		{"quality replaces size", domain.Preferences{PreferQuality: true}, 640},
		{"everything", domain.Preferences{PreferCover: true, PreferLyrics: true, PreferQuality: true}, 1000 + 500 + 640},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, NewRanker(tt.prefs).Score(f), 1e-9)
		})
	}
}

func TestRanker_CoverBeatsHigherBitrate(t *testing.T) {
	prefs := domain.Preferences{PreferCover: true, PreferQuality: true}
	files := []domain.RankedFile{
		rankedFile("hq.mp3", 0, 9*1024*1024, domain.TagInfo{}, 320),
		rankedFile("cover.mp3", 1, 4*1024*1024, domain.TagInfo{HasCover: true}, 128),
	}

	g := NewRanker(prefs).Rank(domain.GroupFuzzy, files)

	assert.Equal(t, "cover.mp3", g.Keeper().File.Path)
	assert.Equal(t, domain.GroupFuzzy, g.Kind)
}

func TestRanker_LargerFileWinsWithoutPreferences(t *testing.T) {
	files := []domain.RankedFile{
		rankedFile("small.mp3", 0, 1024*1024, domain.TagInfo{}, 0),
		rankedFile("large.flac", 1, 30*1024*1024, domain.TagInfo{}, 0),
	}

	g := NewRanker(domain.Preferences{}).Rank(domain.GroupFuzzy, files)

	assert.Equal(t, []string{"large.flac", "small.mp3"}, paths(g))
}

func TestRanker_UnknownBitrateRanksLast(t *testing.T) {
	files := []domain.RankedFile{
		rankedFile("unknown.ape", 0, 50*1024*1024, domain.TagInfo{}, 0),
		rankedFile("known.mp3", 1, 1024*1024, domain.TagInfo{}, 128),
	}

	g := NewRanker(domain.Preferences{PreferQuality: true}).Rank(domain.GroupFuzzy, files)

	assert.Equal(t, "known.mp3", g.Keeper().File.Path)
}

func TestRanker_StableOnTies(t *testing.T) {
	files := []domain.RankedFile{
		rankedFile("a.mp3", 0, 1000, domain.TagInfo{}, 0),
		rankedFile("b.mp3", 1, 1000, domain.TagInfo{}, 0),
		rankedFile("c.mp3", 2, 1000, domain.TagInfo{}, 0),
	}
	r := NewRanker(domain.Preferences{})

	first := r.Rank(domain.GroupExact, files)
	require.Equal(t, []string{"a.mp3", "b.mp3", "c.mp3"}, paths(first))

	for i := 0; i < 10; i++ {
		assert.Equal(t, paths(first), paths(r.Rank(domain.GroupExact, files)))
	}
}

func TestRanker_DoesNotMutateInput(t *testing.T) {
	files := []domain.RankedFile{
		rankedFile("small.mp3", 0, 10, domain.TagInfo{}, 0),
		rankedFile("large.mp3", 1, 20, domain.TagInfo{}, 0),
	}

	NewRanker(domain.Preferences{}).Rank(domain.GroupFuzzy, files)

	assert.Equal(t, "small.mp3", files[0].File.Path)
	assert.Zero(t, files[0].Score)
}
