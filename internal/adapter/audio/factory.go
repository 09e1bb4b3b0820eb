package audio

import (
	"fmt"
	"time"

	"github.com/vertextoedge/audio-dedup/internal/port"
)

// FingerprintOptions selects and tunes a fingerprint backend
type FingerprintOptions struct {
	Backend       string
	MaxSeconds    float64
	FrameMs       int
	FFTSize       int
	FpcalcPath    string
	FpcalcTimeout time.Duration
}

// NewFingerprinter builds the fingerprinter named by opts.Backend.
func NewFingerprinter(opts FingerprintOptions) (port.Fingerprinter, error) {
	switch opts.Backend {
	case "", BackendPCM:
		return NewEnvelopeFingerprinter(opts.MaxSeconds, opts.FrameMs), nil
	case BackendSpectral:
		return NewSpectralFingerprinter(opts.MaxSeconds, opts.FFTSize), nil
	case BackendChromaprint:
		return NewChromaprintFingerprinter(opts.FpcalcPath, int(opts.MaxSeconds), opts.FpcalcTimeout), nil
	case BackendNone:
		return NoopFingerprinter{}, nil
	default:
		return nil, fmt.Errorf("unknown fingerprint backend %q", opts.Backend)
	}
}

var (
	_ port.TagReader       = (*TagReader)(nil)
	_ port.DurationDecoder = (*DurationReader)(nil)
	_ port.Fingerprinter   = (*EnvelopeFingerprinter)(nil)
	_ port.Fingerprinter   = (*SpectralFingerprinter)(nil)
	_ port.Fingerprinter   = (*ChromaprintFingerprinter)(nil)
	_ port.Fingerprinter   = NoopFingerprinter{}
)
