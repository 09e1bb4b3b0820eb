package service

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/vertextoedge/audio-dedup/internal/domain"
	"github.com/vertextoedge/audio-dedup/internal/domain/vo"
)

// Separator patterns tried in order. The first one that matches decides the
// split; both use a lazy left part so the first separator run wins.
var candidatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.*?)[\s\p{Zs}]*[-_][\s\p{Zs}]*(.*?)$`),
	regexp.MustCompile(`^(.*?)[\s\p{Zs}]*[_\s\p{Zs}][\s\p{Zs}]*(.*?)$`),
}

// NormalizeFilename returns the comparison key for a path: the base name
// without extension, lower-cased, keeping only letters, digits, underscore
// and CJK unified ideographs. Applying it to its own output is a no-op.
func NormalizeFilename(path string) string {
	return normalizeKey(stemOf(path))
}

func stemOf(path string) string {
	fp, err := vo.NewFilePath(path)
	if err != nil {
		return ""
	}
	return fp.Stem()
}

func normalizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if keepRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func keepRune(r rune) bool {
	switch {
	case r == '_':
		return true
	case r >= 0x4E00 && r <= 0x9FFF:
		return true
	case unicode.IsLetter(r), unicode.IsNumber(r):
		return true
	}
	return false
}

// ArtistTitleCandidates splits a file's base name into both possible
// (artist, title) orderings. Names without a separator yield the whole name
// once as title and once as artist.
func ArtistTitleCandidates(path string) []domain.ArtistTitle {
	stem := stemOf(path)

	for _, re := range candidatePatterns {
		m := re.FindStringSubmatch(stem)
		if m == nil {
			continue
		}
		first := domain.ArtistTitle{
			Artist: strings.TrimSpace(m[1]),
			Title:  strings.TrimSpace(m[2]),
		}
		return []domain.ArtistTitle{first, first.Swapped()}
	}

	return []domain.ArtistTitle{
		{Artist: stem, Title: ""},
		{Artist: "", Title: stem},
	}
}
