package service

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
	"gonum.org/v1/gonum/stat"

	"github.com/vertextoedge/audio-dedup/internal/domain"
)

// DefaultMinCorrelation is the fingerprint correlation a pair must exceed
const DefaultMinCorrelation = 0.8

// NameSimilarity returns the longest-common-subsequence ratio of two
// normalized names: 2*LCS / (len(a)+len(b)) counted in runes. Equal names
// always score 1.0, including two empty names.
func NameSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1.0
	}
	return 2 * float64(edlib.LCS(a, b)) / float64(total)
}

// MetadataMatch reports whether both tag sets carry an artist and a title
// and both are equal ignoring case.
func MetadataMatch(a, b *domain.TagInfo) bool {
	if !a.HasIdentity() || !b.HasIdentity() {
		return false
	}
	return foldEqual(a.Artist, b.Artist) && foldEqual(a.Title, b.Title)
}

// CandidatesMatch reports whether any filename candidate of a equals any
// candidate of b, either directly or with artist and title swapped.
func CandidatesMatch(a, b []domain.ArtistTitle) bool {
	for _, x := range a {
		for _, y := range b {
			if foldEqual(x.Artist, y.Artist) && foldEqual(x.Title, y.Title) {
				return true
			}
			if foldEqual(x.Artist, y.Title) && foldEqual(x.Title, y.Artist) {
				return true
			}
		}
	}
	return false
}

// PearsonCorrelation truncates both sequences to the shorter length and
// returns their correlation coefficient. ok is false when either sequence
// is empty or the coefficient is undefined (constant input).
func PearsonCorrelation(a, b []float64) (r float64, ok bool) {
	n := min(len(a), len(b))
	if n == 0 {
		return 0, false
	}
	r = stat.Correlation(a[:n], b[:n], nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return r, true
}

// FingerprintMatch reports whether the truncated correlation of two
// fingerprints is defined and strictly above minCorrelation.
func FingerprintMatch(a, b []float64, minCorrelation float64) bool {
	r, ok := PearsonCorrelation(a, b)
	return ok && r > minCorrelation
}

func foldEqual(a, b string) bool {
	return strings.ToLower(a) == strings.ToLower(b)
}
