package dedup

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertextoedge/audio-dedup/internal/domain"
	domainservice "github.com/vertextoedge/audio-dedup/internal/domain/service"
)

// strictMatcher disables the name signal so tests control matches through
// tags and fingerprints only
func strictMatcher(mode GroupingMode) *Matcher {
	return NewMatcher(MatcherConfig{Threshold: 1.0, MinCorrelation: 0.8, Grouping: mode}, nil)
}

// namedFile builds a residual file with signals derived from its path
func namedFile(index int, path string) *domain.AudioFile {
	f := domain.NewAudioFile(path, index, 1000, testModTime)
	f.Signals = &domain.Signals{
		NormalizedName: domainservice.NormalizeFilename(path),
		Candidates:     domainservice.ArtistTitleCandidates(path),
	}
	return f
}

func TestParseGroupingMode(t *testing.T) {
	tests := []struct {
		in      string
		want    GroupingMode
		wantErr bool
	}{
		{in: "", want: GroupingAnchor},
		{in: "anchor", want: GroupingAnchor},
		{in: " Transitive ", want: GroupingTransitive},
		{in: "closure", want: GroupingAnchor, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGroupingMode(tt.in)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMatchReason_String(t *testing.T) {
	assert.Equal(t, "none", MatchReason{}.String())
	assert.Equal(t, "name(0.92)+fingerprint", MatchReason{NameRatio: 0.92, Name: true, Fingerprint: true}.String())
	assert.Equal(t, "metadata+candidates", MatchReason{Metadata: true, Candidates: true}.String())
	assert.False(t, MatchReason{NameRatio: 0.99}.Any())
}

func TestMatcher_Compare_NameThresholdIsStrict(t *testing.T) {
	a := namedFile(0, "/m/songa.mp3")
	b := namedFile(1, "/m/songb.mp3")

	// LCS("songa","songb") = 4, ratio = 8/10
	ratio := domainservice.NameSimilarity("songa", "songb")
	require.InDelta(t, 0.8, ratio, 1e-12)

	assert.True(t, NewMatcher(MatcherConfig{Threshold: 0.79}, nil).Compare(a, b).Name)
	assert.False(t, NewMatcher(MatcherConfig{Threshold: 0.8}, nil).Compare(a, b).Name)
}

func TestMatcher_Compare_ThresholdMonotonicity(t *testing.T) {
	paths := []string{
		"/m/hello world.mp3", "/m/hello world (live).mp3", "/m/helo wrld.mp3",
		"/m/goodbye.mp3", "/m/good bye.flac", "/m/x.mp3",
	}
	files := make([]*domain.AudioFile, len(paths))
	for i, p := range paths {
		files[i] = namedFile(i, p)
	}

	prev := math.MaxInt
	for _, threshold := range []float64{0, 0.2, 0.4, 0.6, 0.8, 0.9, 1.0} {
		m := NewMatcher(MatcherConfig{Threshold: threshold}, nil)
		matches := 0
		for i := range files {
			for j := i + 1; j < len(files); j++ {
				if m.Compare(files[i], files[j]).Name {
					matches++
				}
			}
		}
		assert.LessOrEqual(t, matches, prev, "threshold %v added name matches", threshold)
		prev = matches
	}
	assert.Zero(t, prev, "no ratio exceeds 1.0")
}

func TestMatcher_Compare_Metadata(t *testing.T) {
	tests := []struct {
		name string
		a, b *domain.TagInfo
		want bool
	}{
		{
			name: "equal ignoring case",
			a:    &domain.TagInfo{Artist: "Daft Punk", Title: "One More Time"},
			b:    &domain.TagInfo{Artist: "daft punk", Title: "ONE MORE TIME"},
			want: true,
		},
		{
			name: "title differs",
			a:    &domain.TagInfo{Artist: "A", Title: "B"},
			b:    &domain.TagInfo{Artist: "A", Title: "C"},
		},
		{
			name: "missing artist on one side",
			a:    &domain.TagInfo{Title: "B"},
			b:    &domain.TagInfo{Title: "B"},
		},
		{
			name: "tags absent",
			a:    nil,
			b:    &domain.TagInfo{Artist: "A", Title: "B"},
		},
	}

	m := strictMatcher(GroupingAnchor)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := withSignals(0, "/m/a.mp3", tt.a, nil)
			b := withSignals(1, "/m/b.mp3", tt.b, nil)
			assert.Equal(t, tt.want, m.Compare(a, b).Metadata)
		})
	}
}

func TestMatcher_SwappedArtistTitleScenario(t *testing.T) {
	a := namedFile(0, "/m/Song - Artist.mp3")
	b := namedFile(1, "/m/Artist - Song.mp3")
	fp := []float64{1, 3, 2, 5, 4}
	a.Signals.Fingerprint = fp
	b.Signals.Fingerprint = append([]float64(nil), fp...)

	m := strictMatcher(GroupingAnchor)
	reason := m.Compare(a, b)
	assert.False(t, reason.Name)
	assert.True(t, reason.Candidates)
	assert.True(t, reason.Fingerprint)

	groups, err := m.Group(context.Background(), []*domain.AudioFile{a, b})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"/m/Song - Artist.mp3", "/m/Artist - Song.mp3"}}, groupPaths(groups))
	assert.Equal(t, domain.GroupFuzzy, groups[0].Kind)
}

func TestMatcher_FingerprintTruncationAndNaN(t *testing.T) {
	m := strictMatcher(GroupingAnchor)

	// differing lengths compare on the shorter prefix
	a := withSignals(0, "/m/a.mp3", nil, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	b := withSignals(1, "/m/b.mp3", nil, []float64{2, 4, 6, 8, 10})
	assert.True(t, m.Compare(a, b).Fingerprint)

	// identical constant vectors have undefined correlation
	c := withSignals(2, "/m/c.mp3", nil, []float64{3, 3, 3, 3})
	d := withSignals(3, "/m/d.mp3", nil, []float64{3, 3, 3, 3})
	assert.NotPanics(t, func() {
		assert.False(t, m.Compare(c, d).Fingerprint)
	})

	// anti-correlated vectors do not match
	e := withSignals(4, "/m/e.mp3", nil, []float64{5, 4, 3, 2, 1})
	assert.False(t, m.Compare(a, e).Fingerprint)

	// one side absent
	f := withSignals(5, "/m/f.mp3", nil, nil)
	assert.False(t, m.Compare(a, f).Fingerprint)
}

func TestMatcher_Compare_MissingSignals(t *testing.T) {
	a := domain.NewAudioFile("/m/a.mp3", 0, 1, testModTime)
	b := namedFile(1, "/m/a.mp3")

	assert.False(t, strictMatcher(GroupingAnchor).Compare(a, b).Any())
}

// chainFiles returns A, B, C where A~B and B~C but A and C share no signal
func chainFiles() []*domain.AudioFile {
	tags := &domain.TagInfo{Artist: "x", Title: "y"}
	fp := []float64{1, 5, 2, 8, 3}
	return []*domain.AudioFile{
		withSignals(0, "/m/a.mp3", tags, nil),
		withSignals(1, "/m/b.mp3", tags, fp),
		withSignals(2, "/m/c.mp3", nil, fp),
	}
}

// hubFiles returns A, B, C where A~C and B~C but A and B share no signal
func hubFiles() []*domain.AudioFile {
	tags := &domain.TagInfo{Artist: "x", Title: "y"}
	fp := []float64{1, 5, 2, 8, 3}
	return []*domain.AudioFile{
		withSignals(0, "/m/a.mp3", tags, nil),
		withSignals(1, "/m/b.mp3", nil, fp),
		withSignals(2, "/m/c.mp3", tags, fp),
	}
}

func TestMatcher_AnchorGrouping(t *testing.T) {
	m := strictMatcher(GroupingAnchor)

	t.Run("chain is not merged", func(t *testing.T) {
		groups, err := m.Group(context.Background(), chainFiles())
		require.NoError(t, err)
		// C only matches B, which already belongs to A's group
		assert.Equal(t, [][]string{{"/m/a.mp3", "/m/b.mp3"}}, groupPaths(groups))
	})

	t.Run("hub joins the first anchor", func(t *testing.T) {
		groups, err := m.Group(context.Background(), hubFiles())
		require.NoError(t, err)
		// B stays alone because C was taken by A
		assert.Equal(t, [][]string{{"/m/a.mp3", "/m/c.mp3"}}, groupPaths(groups))
	})
}

func TestMatcher_TransitiveGrouping(t *testing.T) {
	m := strictMatcher(GroupingTransitive)

	for name, files := range map[string][]*domain.AudioFile{
		"chain": chainFiles(),
		"hub":   hubFiles(),
	} {
		t.Run(name, func(t *testing.T) {
			groups, err := m.Group(context.Background(), files)
			require.NoError(t, err)
			assert.Equal(t, [][]string{{"/m/a.mp3", "/m/b.mp3", "/m/c.mp3"}}, groupPaths(groups))
		})
	}
}

func TestMatcher_GroupsAreDisjoint(t *testing.T) {
	tagsA := &domain.TagInfo{Artist: "a", Title: "a"}
	tagsB := &domain.TagInfo{Artist: "b", Title: "b"}
	fp := []float64{9, 1, 8, 2, 7}

	build := func() []*domain.AudioFile {
		return []*domain.AudioFile{
			withSignals(0, "/m/0.mp3", tagsA, nil),
			withSignals(1, "/m/1.mp3", tagsB, fp),
			withSignals(2, "/m/2.mp3", tagsA, fp),
			withSignals(3, "/m/3.mp3", tagsB, nil),
			withSignals(4, "/m/4.mp3", nil, fp),
			withSignals(5, "/m/5.mp3", nil, nil),
			withSignals(6, "/m/6.mp3", tagsA, nil),
		}
	}

	for _, mode := range []GroupingMode{GroupingAnchor, GroupingTransitive} {
		t.Run(string(mode), func(t *testing.T) {
			groups, err := strictMatcher(mode).Group(context.Background(), build())
			require.NoError(t, err)
			require.NotEmpty(t, groups)

			seen := make(map[string]bool)
			for _, g := range groups {
				assert.GreaterOrEqual(t, g.Len(), 2)
				for _, p := range g.Paths() {
					assert.False(t, seen[p], "%s appears in two groups", p)
					seen[p] = true
				}
			}
			assert.False(t, seen["/m/5.mp3"], "a file without signals cannot match")
		})
	}
}

func TestMatcher_EmptyAndSingle(t *testing.T) {
	m := strictMatcher(GroupingAnchor)

	groups, err := m.Group(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, groups)

	groups, err = m.Group(context.Background(), []*domain.AudioFile{namedFile(0, "/m/a.mp3")})
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestMatcher_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, mode := range []GroupingMode{GroupingAnchor, GroupingTransitive} {
		_, err := strictMatcher(mode).Group(ctx, chainFiles())
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestUnionFind(t *testing.T) {
	uf := newUnionFind(5)
	uf.union(0, 1)
	uf.union(3, 4)
	uf.union(1, 4)

	assert.Equal(t, uf.find(0), uf.find(3))
	assert.NotEqual(t, uf.find(0), uf.find(2))
	assert.Equal(t, 4, uf.size[uf.find(4)])
}
