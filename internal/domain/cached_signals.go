package domain

import "time"

// CachedSignals is a persisted snapshot of the expensive per-file signals.
// An entry is only trusted while the file still has the recorded size and
// modification time.
type CachedSignals struct {
	Path    string
	Size    int64
	ModTime time.Time

	// Hash is empty if the file was never part of a size collision
	Hash string

	// Tags is nil when tag extraction failed or never ran
	Tags *TagInfo

	// Fingerprint is nil when fingerprinting failed or never ran.
	// FingerprintBackend names the backend that produced it.
	Fingerprint        []float64
	FingerprintBackend string

	UpdatedAt time.Time
}

// HasTags reports whether tag extraction ran and succeeded
func (c *CachedSignals) HasTags() bool {
	return c != nil && c.Tags != nil
}

// Merge overlays the non-empty signals of other onto c
func (c *CachedSignals) Merge(other *CachedSignals) {
	if other == nil {
		return
	}
	if other.Hash != "" {
		c.Hash = other.Hash
	}
	if other.Tags != nil {
		c.Tags = other.Tags
	}
	if other.Fingerprint != nil {
		c.Fingerprint = other.Fingerprint
		c.FingerprintBackend = other.FingerprintBackend
	}
}
