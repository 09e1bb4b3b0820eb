package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertextoedge/audio-dedup/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Contains(t, cfg.Scan.Extensions, ".flac")
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, 5*time.Second, cfg.Scan.ProgressInterval)
	assert.Equal(t, 0.8, cfg.Match.Threshold)
	assert.Equal(t, "anchor", cfg.Match.Grouping)
	assert.Equal(t, "pcm", cfg.Fingerprint.Backend)
	assert.Equal(t, 30*time.Second, cfg.Fingerprint.FpcalcTimeout)
	assert.Equal(t, "report", cfg.Disposition.Action)
	assert.Equal(t, "duplicates", cfg.Disposition.OutputDir)
	assert.True(t, cfg.Cache.Enabled)

	assert.Equal(t, cfg, Default())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: json
scan:
  workers: 8
  progress_interval: 250ms
match:
  threshold: 0.65
  grouping: transitive
fingerprint:
  backend: spectral
  fft_size: 4096
disposition:
  prefer_cover: true
  action: move
  output_dir: /tmp/dups
cache:
  enabled: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 8, cfg.Scan.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.Scan.ProgressInterval)
	assert.Equal(t, 0.65, cfg.Match.Threshold)
	assert.Equal(t, "transitive", cfg.Match.Grouping)
	assert.Equal(t, 4096, cfg.Fingerprint.FFTSize)
	assert.False(t, cfg.Cache.Enabled)
	// untouched keys keep their defaults
	assert.Equal(t, 100, cfg.Fingerprint.FrameMs)

	prefs := cfg.Preferences()
	assert.True(t, prefs.PreferCover)
	assert.Equal(t, domain.ActionMove, prefs.Action)
	assert.Equal(t, "/tmp/dups", prefs.OutputDir)
	assert.Equal(t, 0.65, prefs.Threshold)
	assert.NoError(t, prefs.Validate())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("AUDIODEDUP_MATCH_THRESHOLD", "0.5")
	t.Setenv("AUDIODEDUP_DISPOSITION_ACTION", "delete")

	cfg, err := Load(writeConfig(t, "match:\n  threshold: 0.9\n"))
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Match.Threshold)
	assert.Equal(t, domain.ActionDelete, cfg.Preferences().Action)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "threshold above one", content: "match:\n  threshold: 1.5\n", wantErr: "match.threshold"},
		{name: "unknown grouping", content: "match:\n  grouping: closure\n", wantErr: "match.grouping"},
		{name: "unknown backend", content: "fingerprint:\n  backend: magic\n", wantErr: "fingerprint.backend"},
		{name: "fft size not a power of two", content: "fingerprint:\n  fft_size: 1000\n", wantErr: "power of two"},
		{name: "move without output dir", content: "disposition:\n  action: move\n  output_dir: \"\"\n", wantErr: "disposition.output_dir"},
		{name: "unknown action", content: "disposition:\n  action: shred\n", wantErr: "disposition.action"},
		{name: "no workers", content: "scan:\n  workers: 0\n", wantErr: "scan.workers"},
		{name: "bad log level", content: "logging:\n  level: loud\n", wantErr: "logging.level"},
		{name: "not yaml", content: "match: [", wantErr: "failed to read config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestCacheConfig_DatabasePath(t *testing.T) {
	explicit := CacheConfig{Path: "/var/lib/dedup.db"}
	path, err := explicit.DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/dedup.db", path)

	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	path, err = (&CacheConfig{}).DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataHome, "audio-dedup", "signals.db"), path)
	assert.DirExists(t, filepath.Join(dataHome, "audio-dedup"))
}

func TestScanConfig_BufferSize(t *testing.T) {
	assert.Equal(t, 64*1024, (&ScanConfig{BufferSizeKB: 64}).BufferSize())
}
