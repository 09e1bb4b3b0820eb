package service

import (
	"github.com/vertextoedge/audio-dedup/internal/domain"
)

// CachePolicy is a domain service deciding which cached signals may be
// reused for a file in the current run.
type CachePolicy struct {
	fingerprintBackend string
}

// NewCachePolicy creates a CachePolicy for the active fingerprint backend
func NewCachePolicy(fingerprintBackend string) *CachePolicy {
	return &CachePolicy{fingerprintBackend: fingerprintBackend}
}

// IsFresh reports whether entry still describes file: same size and same
// modification time (compared at second precision, which is what every
// filesystem we scan preserves).
func (cp *CachePolicy) IsFresh(entry *domain.CachedSignals, file *domain.AudioFile) bool {
	if entry == nil || file == nil {
		return false
	}
	if entry.Size != file.Size.Bytes() {
		return false
	}
	return entry.ModTime.Unix() == file.ModTime.Unix()
}

// HashFor returns the cached content hash, or "" if it cannot be reused
func (cp *CachePolicy) HashFor(entry *domain.CachedSignals, file *domain.AudioFile) string {
	if !cp.IsFresh(entry, file) {
		return ""
	}
	return entry.Hash
}

// TagsFor returns cached tags and whether they can be reused
func (cp *CachePolicy) TagsFor(entry *domain.CachedSignals, file *domain.AudioFile) (*domain.TagInfo, bool) {
	if !cp.IsFresh(entry, file) || entry.Tags == nil {
		return nil, false
	}
	tags := *entry.Tags
	return &tags, true
}

// FingerprintFor returns a cached fingerprint produced by the active backend
func (cp *CachePolicy) FingerprintFor(entry *domain.CachedSignals, file *domain.AudioFile) ([]float64, bool) {
	if !cp.IsFresh(entry, file) || len(entry.Fingerprint) == 0 {
		return nil, false
	}
	if entry.FingerprintBackend != cp.fingerprintBackend {
		return nil, false
	}
	return entry.Fingerprint, true
}
