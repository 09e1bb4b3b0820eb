package dedup

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vertextoedge/audio-dedup/internal/domain"
	domainservice "github.com/vertextoedge/audio-dedup/internal/domain/service"
)

// GroupingMode selects how likely-duplicate pairs become groups
type GroupingMode string

const (
	// GroupingAnchor links a file into the group of the first earlier file
	// it matches. Groups are never merged afterwards, so membership is not
	// transitive.
	GroupingAnchor GroupingMode = "anchor"

	// GroupingTransitive groups the connected components of the
	// likely-duplicate relation.
	GroupingTransitive GroupingMode = "transitive"
)

// ParseGroupingMode converts a config value; empty means anchor.
func ParseGroupingMode(s string) (GroupingMode, error) {
	switch GroupingMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", GroupingAnchor:
		return GroupingAnchor, nil
	case GroupingTransitive:
		return GroupingTransitive, nil
	default:
		return GroupingAnchor, fmt.Errorf("%w: unknown grouping mode %q", domain.ErrInvalidInput, s)
	}
}

// MatchReason records which signals fired for a pair
type MatchReason struct {
	NameRatio   float64
	Name        bool
	Metadata    bool
	Candidates  bool
	Fingerprint bool
}

// Any reports whether the pair is a likely duplicate
func (r MatchReason) Any() bool {
	return r.Name || r.Metadata || r.Candidates || r.Fingerprint
}

// String lists the signals that fired, e.g. "name(0.92)+fingerprint"
func (r MatchReason) String() string {
	var parts []string
	if r.Name {
		parts = append(parts, fmt.Sprintf("name(%.2f)", r.NameRatio))
	}
	if r.Metadata {
		parts = append(parts, "metadata")
	}
	if r.Candidates {
		parts = append(parts, "candidates")
	}
	if r.Fingerprint {
		parts = append(parts, "fingerprint")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// MatcherConfig holds the fuzzy matching parameters
type MatcherConfig struct {
	// Threshold is the name similarity a pair must exceed
	Threshold float64

	// MinCorrelation is the fingerprint correlation a pair must exceed
	MinCorrelation float64

	Grouping GroupingMode
}

// DefaultMatcherConfig returns the default matching parameters
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		Threshold:      domain.DefaultThreshold,
		MinCorrelation: domainservice.DefaultMinCorrelation,
		Grouping:       GroupingAnchor,
	}
}

// Matcher groups residual files by the multi-signal likely-duplicate rule
type Matcher struct {
	config MatcherConfig
	logger *zap.Logger
}

// NewMatcher creates a new Matcher
func NewMatcher(cfg MatcherConfig, logger *zap.Logger) *Matcher {
	if cfg.Grouping == "" {
		cfg.Grouping = GroupingAnchor
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{config: cfg, logger: logger}
}

// Compare evaluates every signal for a pair. Signals absent on either side
// never fire.
func (m *Matcher) Compare(a, b *domain.AudioFile) MatchReason {
	var r MatchReason
	sa, sb := a.Signals, b.Signals
	if sa == nil || sb == nil {
		return r
	}

	r.NameRatio = domainservice.NameSimilarity(sa.NormalizedName, sb.NormalizedName)
	r.Name = r.NameRatio > m.config.Threshold
	r.Metadata = domainservice.MetadataMatch(sa.Tags, sb.Tags)
	r.Candidates = domainservice.CandidatesMatch(sa.Candidates, sb.Candidates)
	if sa.HasFingerprint() && sb.HasFingerprint() {
		r.Fingerprint = domainservice.FingerprintMatch(sa.Fingerprint, sb.Fingerprint, m.config.MinCorrelation)
	}
	return r
}

// Group compares every pair of files in discovery order and returns the
// fuzzy duplicate groups.
func (m *Matcher) Group(ctx context.Context, files []*domain.AudioFile) ([]*domain.DuplicateGroup, error) {
	if m.config.Grouping == GroupingTransitive {
		return m.groupTransitive(ctx, files)
	}
	return m.groupAnchor(ctx, files)
}

// groupAnchor: for each unprocessed file a, every later unprocessed file
// matching a joins a's group and is marked processed. a itself stays
// eligible as the head of its own group only.
func (m *Matcher) groupAnchor(ctx context.Context, files []*domain.AudioFile) ([]*domain.DuplicateGroup, error) {
	processed := make([]bool, len(files))
	var groups []*domain.DuplicateGroup

	for i, a := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if processed[i] {
			continue
		}

		members := []*domain.AudioFile{a}
		for j := i + 1; j < len(files); j++ {
			if processed[j] {
				continue
			}
			reason := m.Compare(a, files[j])
			if !reason.Any() {
				continue
			}
			m.logMatch(a, files[j], reason)
			members = append(members, files[j])
			processed[j] = true
		}

		if group, err := domain.NewDuplicateGroup(domain.GroupFuzzy, members); err == nil {
			groups = append(groups, group)
		}
	}

	return groups, nil
}

// groupTransitive unions every matching pair and emits each component of
// two or more files, ordered by its earliest member.
func (m *Matcher) groupTransitive(ctx context.Context, files []*domain.AudioFile) ([]*domain.DuplicateGroup, error) {
	uf := newUnionFind(len(files))

	for i := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := i + 1; j < len(files); j++ {
			if uf.find(i) == uf.find(j) {
				continue
			}
			reason := m.Compare(files[i], files[j])
			if !reason.Any() {
				continue
			}
			m.logMatch(files[i], files[j], reason)
			uf.union(i, j)
		}
	}

	members := make(map[int][]*domain.AudioFile)
	var roots []int
	for i, f := range files {
		root := uf.find(i)
		if _, seen := members[root]; !seen {
			roots = append(roots, root)
		}
		members[root] = append(members[root], f)
	}

	var groups []*domain.DuplicateGroup
	for _, root := range roots {
		if group, err := domain.NewDuplicateGroup(domain.GroupFuzzy, members[root]); err == nil {
			groups = append(groups, group)
		}
	}
	return groups, nil
}

func (m *Matcher) logMatch(a, b *domain.AudioFile, reason MatchReason) {
	m.logger.Debug("likely duplicate",
		zap.String("anchor", a.Path),
		zap.String("match", b.Path),
		zap.Stringer("reason", reason))
}

// unionFind is a disjoint-set forest with path halving and union by size
type unionFind struct {
	parent []int
	size   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), size: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.size[ra] < uf.size[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
}
