package audio

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/vertextoedge/audio-dedup/internal/domain"
)

// ChromaprintFingerprinter runs fpcalc from chromaprint-tools and returns
// the raw sub-fingerprints as numbers.
type ChromaprintFingerprinter struct {
	binary  string
	length  int
	timeout time.Duration
}

// NewChromaprintFingerprinter creates a fingerprinter using binary (usually
// "fpcalc") over the first lengthSec seconds of audio.
func NewChromaprintFingerprinter(binary string, lengthSec int, timeout time.Duration) *ChromaprintFingerprinter {
	if binary == "" {
		binary = "fpcalc"
	}
	if lengthSec <= 0 {
		lengthSec = 120
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChromaprintFingerprinter{binary: binary, length: lengthSec, timeout: timeout}
}

// Available reports whether the fpcalc binary can be found
func (f *ChromaprintFingerprinter) Available() bool {
	_, err := exec.LookPath(f.binary)
	return err == nil
}

// Name returns the backend name stored next to cached fingerprints
func (f *ChromaprintFingerprinter) Name() string {
	return fmt.Sprintf("%s/%ds", BackendChromaprint, f.length)
}

// Fingerprint runs fpcalc -raw on path
func (f *ChromaprintFingerprinter) Fingerprint(ctx context.Context, path string) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.binary, "-raw", "-length", strconv.Itoa(f.length), path)
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("fpcalc: %w: %s", domain.ErrNoAudio, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("fpcalc: %w", err)
	}

	fp := ParseFpcalcOutput(string(out))
	if len(fp) == 0 {
		return nil, fmt.Errorf("fpcalc: %w", domain.ErrNoAudio)
	}
	return fp, nil
}

// ParseFpcalcOutput extracts the FINGERPRINT= line of fpcalc -raw output.
// Values may be separated by commas or spaces; unparsable values are skipped.
func ParseFpcalcOutput(out string) []float64 {
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "FINGERPRINT=") {
			continue
		}

		parts := strings.FieldsFunc(strings.TrimPrefix(line, "FINGERPRINT="), func(r rune) bool {
			return r == ' ' || r == ','
		})
		fp := make([]float64, 0, len(parts))
		for _, p := range parts {
			u, err := strconv.ParseUint(p, 10, 32)
			if err != nil {
				continue
			}
			fp = append(fp, float64(u))
		}
		return fp
	}
	return nil
}
