package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/llehouerou/go-mp3"
	"github.com/mewkiz/flac"
	"github.com/tosone/minimp3"

	"github.com/vertextoedge/audio-dedup/internal/domain"
)

const (
	extMP3  = ".mp3"
	extFLAC = ".flac"
	extWAV  = ".wav"

	readChunk = 16 * 1024
)

// PCM is decoded audio downmixed to mono, scaled to [-1, 1].
type PCM struct {
	Samples    []float64
	SampleRate int
}

// Seconds returns the decoded length in seconds
func (p *PCM) Seconds() float64 {
	if p == nil || p.SampleRate == 0 {
		return 0
	}
	return float64(len(p.Samples)) / float64(p.SampleRate)
}

// Decoder turns supported audio files into mono PCM.
type Decoder struct {
	// MaxSeconds caps how much audio is decoded; zero decodes everything.
	MaxSeconds float64
}

// NewDecoder creates a decoder that stops after maxSeconds of audio.
func NewDecoder(maxSeconds float64) *Decoder {
	return &Decoder{MaxSeconds: maxSeconds}
}

// Supports reports whether the file extension has a PCM decoder.
func Supports(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case extMP3, extFLAC, extWAV:
		return true
	default:
		return false
	}
}

// Decode reads up to MaxSeconds of audio from path.
func (d *Decoder) Decode(ctx context.Context, path string) (*PCM, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		pcm *PCM
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case extMP3:
		pcm, err = d.decodeMP3(ctx, path)
	case extFLAC:
		pcm, err = d.decodeFLAC(ctx, path)
	case extWAV:
		pcm, err = d.decodeWAV(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if len(pcm.Samples) == 0 {
		return nil, domain.ErrNoAudio
	}
	return pcm, nil
}

// limit returns the sample budget for a stream at sampleRate
func (d *Decoder) limit(sampleRate int) int {
	if d.MaxSeconds <= 0 || sampleRate <= 0 {
		return -1
	}
	return int(d.MaxSeconds * float64(sampleRate))
}

func (d *Decoder) decodeMP3(ctx context.Context, path string) (*PCM, error) {
	pcm, err := d.decodeGoMP3(ctx, path)
	if err == nil {
		return pcm, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// go-mp3 rejects some VBR and free-format streams that minimp3 accepts
	fallback, ferr := d.decodeMiniMP3(ctx, path)
	if ferr != nil {
		return nil, fmt.Errorf("decode mp3: %w", errors.Join(err, ferr))
	}
	return fallback, nil
}

func (d *Decoder) decodeGoMP3(ctx context.Context, path string) (*PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, err
	}
	if dec.SampleRate() <= 0 {
		return nil, errors.New("mp3: invalid sample rate")
	}

	// go-mp3 always yields 16-bit little-endian stereo
	return readInterleaved16(ctx, dec, 2, dec.SampleRate(), d.limit(dec.SampleRate()))
}

func (d *Decoder) decodeMiniMP3(ctx context.Context, path string) (*PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := minimp3.NewDecoder(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	<-dec.Started()
	if dec.SampleRate == 0 || dec.Channels == 0 {
		return nil, io.ErrUnexpectedEOF
	}

	return readInterleaved16(ctx, dec, dec.Channels, dec.SampleRate, d.limit(dec.SampleRate))
}

// readInterleaved16 downmixes interleaved signed 16-bit little-endian PCM
func readInterleaved16(ctx context.Context, r io.Reader, channels, sampleRate, limit int) (*PCM, error) {
	frameBytes := 2 * channels
	buf := make([]byte, readChunk-readChunk%frameBytes)
	pcm := &PCM{SampleRate: sampleRate}
	var pending []byte

	for limit < 0 || len(pcm.Samples) < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := r.Read(buf)
		data := append(pending, buf[:n]...)
		whole := len(data) - len(data)%frameBytes
		for off := 0; off < whole; off += frameBytes {
			var sum float64
			for ch := 0; ch < channels; ch++ {
				s := int16(binary.LittleEndian.Uint16(data[off+2*ch:])) //nolint:gosec // audio samples
				sum += float64(s) / 32768.0
			}
			pcm.Samples = append(pcm.Samples, sum/float64(channels))
			if limit >= 0 && len(pcm.Samples) >= limit {
				break
			}
		}
		pending = append(pending[:0], data[whole:]...)

		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if len(pcm.Samples) > 0 {
				// A truncated tail still leaves a usable prefix
				break
			}
			return nil, err
		}
		if n == 0 {
			break
		}
	}

	return pcm, nil
}

func (d *Decoder) decodeFLAC(ctx context.Context, path string) (*PCM, error) {
	stream, err := flac.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decode flac: %w", err)
	}
	defer stream.Close()

	sampleRate := int(stream.Info.SampleRate)
	bps := int(stream.Info.BitsPerSample)
	if sampleRate == 0 || bps == 0 {
		return nil, errors.New("flac: invalid stream info")
	}
	scale := float64(int64(1) << (bps - 1))
	limit := d.limit(sampleRate)
	pcm := &PCM{SampleRate: sampleRate}

	for limit < 0 || len(pcm.Samples) < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame, err := stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) || len(pcm.Samples) > 0 {
				break
			}
			return nil, fmt.Errorf("decode flac: %w", err)
		}
		if len(frame.Subframes) == 0 {
			continue
		}

		channels := len(frame.Subframes)
		for i := range frame.Subframes[0].Samples {
			var sum float64
			for ch := 0; ch < channels; ch++ {
				sum += float64(frame.Subframes[ch].Samples[i]) / scale
			}
			pcm.Samples = append(pcm.Samples, sum/float64(channels))
			if limit >= 0 && len(pcm.Samples) >= limit {
				break
			}
		}
	}

	return pcm, nil
}

func (d *Decoder) decodeWAV(ctx context.Context, path string) (*PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, errors.New("wav: invalid file")
	}

	channels := int(dec.NumChans)
	sampleRate := int(dec.SampleRate)
	bitDepth := int(dec.BitDepth)
	if channels == 0 || sampleRate == 0 || bitDepth == 0 {
		return nil, errors.New("wav: invalid format")
	}
	scale := float64(int64(1) << (bitDepth - 1))
	limit := d.limit(sampleRate)

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:   make([]int, (readChunk/channels)*channels),
	}
	pcm := &PCM{SampleRate: sampleRate}

	for limit < 0 || len(pcm.Samples) < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := dec.PCMBuffer(buf)
		if err != nil {
			if len(pcm.Samples) > 0 {
				break
			}
			return nil, fmt.Errorf("decode wav: %w", err)
		}
		if n == 0 {
			break
		}

		for off := 0; off+channels <= n; off += channels {
			var sum float64
			for ch := 0; ch < channels; ch++ {
				sum += float64(buf.Data[off+ch]) / scale
			}
			pcm.Samples = append(pcm.Samples, sum/float64(channels))
			if limit >= 0 && len(pcm.Samples) >= limit {
				break
			}
		}
	}

	return pcm, nil
}
