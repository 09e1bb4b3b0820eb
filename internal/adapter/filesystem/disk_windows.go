//go:build windows
// +build windows

package filesystem

import (
	"errors"
	"os"

	"github.com/vertextoedge/audio-dedup/internal/port"
)

var errDiskUsageUnsupported = errors.New("disk usage not supported on windows")

// GetDiskUsage is not implemented on Windows; callers skip the free space check
func (m *Manager) GetDiskUsage(path string) (*port.DiskUsage, error) {
	return nil, errDiskUsageUnsupported
}

// isCrossDevice treats any rename link error as a cross-volume move
func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	return errors.As(err, &linkErr)
}
