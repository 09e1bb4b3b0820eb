package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"

	"github.com/vertextoedge/audio-dedup/internal/domain"
)

// lyricFields are the raw tag keys different taggers store lyrics under
var lyricFields = []string{"LYRICS", "UNSYNCEDLYRICS", "USLT", "USLT0", "USLT1", "Lyrics", "UnsyncedLyrics"}

// TagReader reads artist, title, cover and lyrics presence from audio files.
// It implements port.TagReader.
type TagReader struct{}

// NewTagReader creates a new TagReader
func NewTagReader() *TagReader {
	return &TagReader{}
}

// ReadTags returns the tag info for a file. A file without any tag block
// yields an error; a file with a tag block but empty fields yields an empty
// TagInfo.
func (r *TagReader) ReadTags(ctx context.Context, path string) (*domain.TagInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))

	info, err := readGenericTags(path)
	if err != nil {
		// dhowden/tag rejects some ID3v2.4 layouts that id3v2 handles
		if ext == ".mp3" {
			return readID3Tags(path)
		}
		if ext == ".flac" {
			return readFLACTags(path)
		}
		return nil, err
	}

	// dhowden/tag does not report every lyric or picture layout
	if !info.HasCover || !info.HasLyrics {
		switch ext {
		case ".mp3":
			if extra, err := readID3Tags(path); err == nil {
				mergeTagInfo(info, extra)
			}
		case ".flac":
			if extra, err := readFLACTags(path); err == nil {
				mergeTagInfo(info, extra)
			}
		}
	}

	return info, nil
}

func readGenericTags(path string) (*domain.TagInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("read tags: %w", err)
	}

	return &domain.TagInfo{
		Artist:    strings.TrimSpace(m.Artist()),
		Title:     strings.TrimSpace(m.Title()),
		HasCover:  m.Picture() != nil,
		HasLyrics: strings.TrimSpace(m.Lyrics()) != "" || rawLyrics(m.Raw()) != "",
	}, nil
}

// rawLyrics looks up lyrics stored under non-standard keys
func rawLyrics(raw map[string]interface{}) string {
	for _, field := range lyricFields {
		switch v := raw[field].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case []byte:
			if len(v) > 0 {
				return string(v)
			}
		case *tag.Comm:
			if v != nil && strings.TrimSpace(v.Text) != "" {
				return v.Text
			}
		}
	}
	return ""
}

func readID3Tags(path string) (*domain.TagInfo, error) {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("read id3v2: %w", err)
	}
	defer t.Close()

	if !t.HasFrames() {
		return nil, fmt.Errorf("read id3v2: %w", domain.ErrNotFound)
	}

	info := &domain.TagInfo{
		Artist: strings.TrimSpace(t.Artist()),
		Title:  strings.TrimSpace(t.Title()),
	}

	for _, frame := range t.GetFrames(t.CommonID("Attached picture")) {
		if pic, ok := frame.(id3v2.PictureFrame); ok && len(pic.Picture) > 0 {
			info.HasCover = true
			break
		}
	}

	for _, frame := range t.GetFrames(t.CommonID("Unsynchronised lyrics/text transcription")) {
		if uslt, ok := frame.(id3v2.UnsynchronisedLyricsFrame); ok && strings.TrimSpace(uslt.Lyrics) != "" {
			info.HasLyrics = true
			break
		}
	}

	return info, nil
}

func readFLACTags(path string) (*domain.TagInfo, error) {
	f, err := goflac.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse flac: %w", err)
	}

	info := &domain.TagInfo{}
	found := false

	for _, meta := range f.Meta {
		switch meta.Type {
		case goflac.VorbisComment:
			cmt, err := flacvorbis.ParseFromMetaDataBlock(*meta)
			if err != nil {
				continue
			}
			found = true
			info.Artist = firstComment(cmt, flacvorbis.FIELD_ARTIST)
			info.Title = firstComment(cmt, flacvorbis.FIELD_TITLE)
			if firstComment(cmt, "LYRICS") != "" || firstComment(cmt, "UNSYNCEDLYRICS") != "" {
				info.HasLyrics = true
			}
		case goflac.Picture:
			pic, err := flacpicture.ParseFromMetaDataBlock(*meta)
			if err == nil && len(pic.ImageData) > 0 {
				found = true
				info.HasCover = true
			}
		}
	}

	if !found {
		return nil, fmt.Errorf("parse flac: %w", errors.Join(domain.ErrNotFound, errors.New("no vorbis comment or picture block")))
	}
	return info, nil
}

func firstComment(cmt *flacvorbis.MetaDataBlockVorbisComment, key string) string {
	values, err := cmt.Get(key)
	if err != nil {
		return ""
	}
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// mergeTagInfo fills absent fields of dst from src
func mergeTagInfo(dst, src *domain.TagInfo) {
	if dst.Artist == "" {
		dst.Artist = src.Artist
	}
	if dst.Title == "" {
		dst.Title = src.Title
	}
	dst.HasCover = dst.HasCover || src.HasCover
	dst.HasLyrics = dst.HasLyrics || src.HasLyrics
}
