package disposition

import (
	"fmt"

	"github.com/vertextoedge/audio-dedup/internal/domain"
)

// FormatMember renders one line of a group report, e.g.
//
//	1. /music/a.mp3 (3.52 MB, 320 kbps) [cover:yes, lyrics:no] - Artist - Title [keep]
//
// rank is 1-based.
func FormatMember(rank int, f domain.RankedFile) string {
	artist := f.Tags.Artist
	if artist == "" {
		artist = "unknown artist"
	}
	title := f.Tags.Title
	if title == "" {
		title = "unknown title"
	}

	line := fmt.Sprintf("  %d. %s (%s, %s) [cover:%s, lyrics:%s] - %s - %s",
		rank, f.File.Path, f.File.Size.MBString(), f.Bitrate,
		yesNo(f.Tags.HasCover), yesNo(f.Tags.HasLyrics), artist, title)
	if rank == 1 {
		line += " [keep]"
	}
	return line
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
