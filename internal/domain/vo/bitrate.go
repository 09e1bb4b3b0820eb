package vo

import (
	"fmt"
	"time"
)

// Bitrate represents an average audio bitrate in kilobits per second.
// The zero value means "unknown" and ranks below every measured bitrate.
type Bitrate struct {
	kbps float64
}

// NewBitrate creates a Bitrate from kbps. Negative or NaN input is
// clamped to unknown.
func NewBitrate(kbps float64) Bitrate {
	if !(kbps > 0) {
		return Bitrate{}
	}
	return Bitrate{kbps: kbps}
}

// UnknownBitrate returns the zero bitrate.
func UnknownBitrate() Bitrate {
	return Bitrate{}
}

// EstimateBitrate derives the average bitrate from the file size and the
// decoded duration: size in bits / seconds / 1000.
func EstimateBitrate(size FileSize, duration time.Duration) Bitrate {
	secs := duration.Seconds()
	if secs <= 0 {
		return Bitrate{}
	}
	return NewBitrate(size.Bits() / secs / 1000)
}

// Kbps returns the numeric value in kbps.
func (b Bitrate) Kbps() float64 {
	return b.kbps
}

// IsKnown returns true if a bitrate was measured.
func (b Bitrate) IsKnown() bool {
	return b.kbps > 0
}

// HigherThan returns true if this bitrate is strictly higher than other.
func (b Bitrate) HigherThan(other Bitrate) bool {
	return b.kbps > other.kbps
}

// String returns the rounded bitrate, e.g. "320 kbps".
func (b Bitrate) String() string {
	return fmt.Sprintf("%.0f kbps", b.kbps)
}
