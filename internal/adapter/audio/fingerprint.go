package audio

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/vertextoedge/audio-dedup/internal/domain"
)

// Fingerprint backend names
const (
	BackendPCM         = "pcm"
	BackendSpectral    = "spectral"
	BackendChromaprint = "chromaprint"
	BackendNone        = "none"
)

// EnvelopeFingerprinter describes audio by the RMS energy of fixed-length
// frames. Two encodings of the same recording produce strongly correlated
// envelopes even when their bitrates differ.
type EnvelopeFingerprinter struct {
	decoder *Decoder
	frameMs int
}

// NewEnvelopeFingerprinter creates an envelope fingerprinter over the first
// maxSeconds of audio using frameMs frames.
func NewEnvelopeFingerprinter(maxSeconds float64, frameMs int) *EnvelopeFingerprinter {
	if frameMs <= 0 {
		frameMs = 100
	}
	return &EnvelopeFingerprinter{decoder: NewDecoder(maxSeconds), frameMs: frameMs}
}

// Name returns the backend name stored next to cached fingerprints
func (f *EnvelopeFingerprinter) Name() string {
	return fmt.Sprintf("%s/%dms", BackendPCM, f.frameMs)
}

// Fingerprint returns one RMS value per frame
func (f *EnvelopeFingerprinter) Fingerprint(ctx context.Context, path string) ([]float64, error) {
	pcm, err := f.decoder.Decode(ctx, path)
	if err != nil {
		return nil, err
	}
	return Envelope(pcm, f.frameMs), nil
}

// Envelope splits pcm into frameMs frames and returns the RMS of each.
// A trailing partial frame is dropped.
func Envelope(pcm *PCM, frameMs int) []float64 {
	size := pcm.SampleRate * frameMs / 1000
	if size <= 0 {
		return nil
	}

	frames := len(pcm.Samples) / size
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for _, s := range pcm.Samples[i*size : (i+1)*size] {
			sum += s * s
		}
		out[i] = math.Sqrt(sum / float64(size))
	}
	return out
}

// SpectralFingerprinter describes audio by the spectral centroid of
// Hann-windowed FFT frames.
type SpectralFingerprinter struct {
	decoder   *Decoder
	frameSize int
	hop       int
}

// NewSpectralFingerprinter creates a spectral fingerprinter. frameSize
// should be a power of two; hop defaults to half a frame.
func NewSpectralFingerprinter(maxSeconds float64, frameSize int) *SpectralFingerprinter {
	if frameSize <= 0 {
		frameSize = 2048
	}
	return &SpectralFingerprinter{
		decoder:   NewDecoder(maxSeconds),
		frameSize: frameSize,
		hop:       frameSize / 2,
	}
}

// Name returns the backend name stored next to cached fingerprints
func (f *SpectralFingerprinter) Name() string {
	return fmt.Sprintf("%s/%d", BackendSpectral, f.frameSize)
}

// Fingerprint returns one spectral centroid (Hz) per frame
func (f *SpectralFingerprinter) Fingerprint(ctx context.Context, path string) ([]float64, error) {
	pcm, err := f.decoder.Decode(ctx, path)
	if err != nil {
		return nil, err
	}
	return SpectralCentroids(pcm, f.frameSize, f.hop), nil
}

// SpectralCentroids returns the magnitude-weighted mean frequency of each
// STFT frame. Silent frames report 0.
func SpectralCentroids(pcm *PCM, n, hop int) []float64 {
	if n <= 1 || hop <= 0 || len(pcm.Samples) < n {
		return nil
	}

	win := hann(n)
	fft := fourier.NewFFT(n)
	buf := make([]float64, n)
	var coeffs []complex128

	frames := 1 + (len(pcm.Samples)-n)/hop
	out := make([]float64, frames)
	binHz := float64(pcm.SampleRate) / float64(n)

	for i := 0; i < frames; i++ {
		start := i * hop
		for k := 0; k < n; k++ {
			buf[k] = pcm.Samples[start+k] * win[k]
		}
		coeffs = fft.Coefficients(coeffs, buf)

		var weighted, total float64
		for bin, c := range coeffs[:n/2] {
			mag := cmplx.Abs(c)
			weighted += mag * float64(bin) * binHz
			total += mag
		}
		if total > 0 {
			out[i] = weighted / total
		}
	}
	return out
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// NoopFingerprinter never produces a fingerprint, disabling the
// fingerprint comparison.
type NoopFingerprinter struct{}

// Name returns the backend name
func (NoopFingerprinter) Name() string { return BackendNone }

// Fingerprint always reports the signal as absent
func (NoopFingerprinter) Fingerprint(ctx context.Context, path string) ([]float64, error) {
	return nil, domain.ErrNoAudio
}
