package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	goflac "github.com/go-flac/go-flac"
	"github.com/go-audio/wav"
	"github.com/llehouerou/go-mp3"
	"github.com/mewkiz/flac"
	"github.com/tosone/minimp3"

	"github.com/vertextoedge/audio-dedup/internal/domain"
)

// DurationReader reports the playing time of audio files.
// It implements port.DurationDecoder.
type DurationReader struct{}

// NewDurationReader creates a new DurationReader
func NewDurationReader() *DurationReader {
	return &DurationReader{}
}

// Duration returns the playing time of the file at path.
func (r *DurationReader) Duration(ctx context.Context, path string) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var (
		d   time.Duration
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case extMP3:
		d, err = mp3Duration(path)
	case extFLAC:
		d, err = flacDuration(path)
	case extWAV:
		d, err = wavDuration(path)
	default:
		return 0, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, domain.ErrNoAudio
	}
	return d, nil
}

func mp3Duration(path string) (time.Duration, error) {
	d, err := goMP3Duration(path)
	if err == nil && d > 0 {
		return d, nil
	}

	fallback, ferr := miniMP3Duration(path)
	if ferr != nil {
		return 0, fmt.Errorf("mp3 duration: %w", errors.Join(err, ferr))
	}
	return fallback, nil
}

func goMP3Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return 0, err
	}

	sampleRate := dec.SampleRate()
	if sampleRate == 0 {
		return 0, errors.New("mp3: invalid sample rate")
	}
	sampleCount := max(dec.SampleCount(), 0)

	return time.Duration(float64(sampleCount) / float64(sampleRate) * float64(time.Second)), nil
}

// miniMP3Duration decodes the whole stream; it is only used when go-mp3
// cannot read the frame index.
func miniMP3Duration(path string) (time.Duration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	dec, pcm, err := minimp3.DecodeFull(data)
	if err != nil {
		return 0, err
	}
	defer dec.Close()

	if dec.SampleRate == 0 || dec.Channels == 0 {
		return 0, errors.New("mp3: invalid stream")
	}
	samples := len(pcm) / 2 / dec.Channels
	return time.Duration(float64(samples) / float64(dec.SampleRate) * float64(time.Second)), nil
}

func flacDuration(path string) (time.Duration, error) {
	if d, err := flacStreamInfoDuration(path); err == nil && d > 0 {
		return d, nil
	}

	// Files with a prepended ID3 tag fail metadata parsing; mewkiz skips it
	stream, err := flac.Open(path)
	if err != nil {
		return 0, fmt.Errorf("flac duration: %w", err)
	}
	defer stream.Close()

	if stream.Info.SampleRate == 0 {
		return 0, errors.New("flac: invalid sample rate")
	}
	return time.Duration(float64(stream.Info.NSamples) / float64(stream.Info.SampleRate) * float64(time.Second)), nil
}

// flacStreamInfoDuration reads the STREAMINFO block without decoding frames
func flacStreamInfoDuration(path string) (time.Duration, error) {
	f, err := goflac.ParseFile(path)
	if err != nil {
		return 0, err
	}

	for _, meta := range f.Meta {
		if meta.Type != goflac.StreamInfo || len(meta.Data) < 18 {
			continue
		}
		data := meta.Data

		// 20 bits sample rate, 3 bits channels, 5 bits depth, 36 bits total samples
		sampleRate := int(data[10])<<12 | int(data[11])<<4 | int(data[12])>>4
		totalSamples := int64(data[13]&0x0F)<<32 | int64(data[14])<<24 | int64(data[15])<<16 | int64(data[16])<<8 | int64(data[17])
		if sampleRate == 0 {
			return 0, errors.New("flac: invalid sample rate")
		}
		return time.Duration(float64(totalSamples) / float64(sampleRate) * float64(time.Second)), nil
	}

	return 0, errors.New("flac: no streaminfo block")
}

func wavDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, errors.New("wav: invalid file")
	}
	return dec.Duration()
}
