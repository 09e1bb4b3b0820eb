package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/vertextoedge/audio-dedup/internal/domain"
)

const (
	appName    = "audio-dedup"
	dbFileName = "signals.db"
	envPrefix  = "AUDIODEDUP"
)

// Config represents the entire application configuration
type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
	Scan        ScanConfig        `mapstructure:"scan" yaml:"scan"`
	Match       MatchConfig       `mapstructure:"match" yaml:"match"`
	Fingerprint FingerprintConfig `mapstructure:"fingerprint" yaml:"fingerprint"`
	Disposition DispositionConfig `mapstructure:"disposition" yaml:"disposition"`
	Cache       CacheConfig       `mapstructure:"cache" yaml:"cache"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=console text json"`
}

// ScanConfig contains enumeration and extraction settings
type ScanConfig struct {
	Extensions       []string      `mapstructure:"extensions" yaml:"extensions" validate:"min=1,dive,required"`
	SkipHidden       bool          `mapstructure:"skip_hidden" yaml:"skip_hidden"`
	Workers          int           `mapstructure:"workers" yaml:"workers" validate:"min=1,max=64"`
	BufferSizeKB     int           `mapstructure:"buffer_size_kb" yaml:"buffer_size_kb" validate:"min=4"`
	ProgressInterval time.Duration `mapstructure:"progress_interval" yaml:"progress_interval" validate:"min=0"`
	ProgressBar      bool          `mapstructure:"progress_bar" yaml:"progress_bar"`
}

// MatchConfig contains fuzzy matching settings
type MatchConfig struct {
	Threshold      float64 `mapstructure:"threshold" yaml:"threshold" validate:"gte=0,lte=1"`
	MinCorrelation float64 `mapstructure:"min_correlation" yaml:"min_correlation" validate:"gte=-1,lte=1"`
	Grouping       string  `mapstructure:"grouping" yaml:"grouping" validate:"oneof=anchor transitive"`
}

// FingerprintConfig selects and tunes the fingerprint backend
type FingerprintConfig struct {
	Backend       string        `mapstructure:"backend" yaml:"backend" validate:"oneof=pcm spectral chromaprint none"`
	MaxSeconds    int           `mapstructure:"max_seconds" yaml:"max_seconds" validate:"min=1"`
	FrameMs       int           `mapstructure:"frame_ms" yaml:"frame_ms" validate:"min=10,max=1000"`
	FFTSize       int           `mapstructure:"fft_size" yaml:"fft_size" validate:"min=256,max=16384"`
	FpcalcPath    string        `mapstructure:"fpcalc_path" yaml:"fpcalc_path"`
	FpcalcTimeout time.Duration `mapstructure:"fpcalc_timeout" yaml:"fpcalc_timeout" validate:"min=0"`
}

// DispositionConfig holds the preferences used by batch runs and as prompt
// defaults
type DispositionConfig struct {
	PreferCover   bool   `mapstructure:"prefer_cover" yaml:"prefer_cover"`
	PreferLyrics  bool   `mapstructure:"prefer_lyrics" yaml:"prefer_lyrics"`
	PreferQuality bool   `mapstructure:"prefer_quality" yaml:"prefer_quality"`
	Action        string `mapstructure:"action" yaml:"action" validate:"oneof=report move delete"`
	OutputDir     string `mapstructure:"output_dir" yaml:"output_dir" validate:"required_if=Action move"`
}

// CacheConfig contains signal cache and journal settings
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Path of the sqlite database; empty means the XDG data directory
	Path  string `mapstructure:"path" yaml:"path"`
	Prune bool   `mapstructure:"prune" yaml:"prune"`
}

// Load loads configuration. configPath may be empty, in which case only
// defaults and AUDIODEDUP_* environment variables apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	_ = v.Unmarshal(&config)
	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("scan.extensions", []string{".mp3", ".flac", ".wav", ".m4a", ".aac", ".ogg", ".wma", ".ape", ".opus"})
	v.SetDefault("scan.skip_hidden", false)
	v.SetDefault("scan.workers", 4)
	v.SetDefault("scan.buffer_size_kb", 1024)
	v.SetDefault("scan.progress_interval", "5s")
	v.SetDefault("scan.progress_bar", true)
	v.SetDefault("match.threshold", domain.DefaultThreshold)
	v.SetDefault("match.min_correlation", 0.8)
	v.SetDefault("match.grouping", "anchor")
	v.SetDefault("fingerprint.backend", "pcm")
	v.SetDefault("fingerprint.max_seconds", 30)
	v.SetDefault("fingerprint.frame_ms", 100)
	v.SetDefault("fingerprint.fft_size", 2048)
	v.SetDefault("fingerprint.fpcalc_path", "fpcalc")
	v.SetDefault("fingerprint.fpcalc_timeout", "30s")
	v.SetDefault("disposition.prefer_cover", false)
	v.SetDefault("disposition.prefer_lyrics", false)
	v.SetDefault("disposition.prefer_quality", false)
	v.SetDefault("disposition.action", string(domain.ActionReport))
	v.SetDefault("disposition.output_dir", domain.DefaultOutputDir)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", "")
	v.SetDefault("cache.prune", true)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s (%s %s)", configKey(fe), fe.Tag(), fe.Param())
		}
		return err
	}

	if n := c.Fingerprint.FFTSize; n&(n-1) != 0 {
		return fmt.Errorf("fingerprint.fft_size must be a power of two")
	}
	return nil
}

// newValidator reports fields by their config key rather than Go name
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// configKey turns "Config.match.threshold" into "match.threshold"
func configKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// Preferences returns the disposition preferences of a batch run
func (c *Config) Preferences() domain.Preferences {
	action, _ := domain.ParseAction(c.Disposition.Action)
	return domain.Preferences{
		PreferCover:   c.Disposition.PreferCover,
		PreferLyrics:  c.Disposition.PreferLyrics,
		PreferQuality: c.Disposition.PreferQuality,
		Action:        action,
		OutputDir:     c.Disposition.OutputDir,
		Threshold:     c.Match.Threshold,
	}
}

// DatabasePath returns the cache database location, creating the XDG data
// directory when no explicit path is configured
func (c *CacheConfig) DatabasePath() (string, error) {
	if c.Path != "" {
		return c.Path, nil
	}
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}

// BufferSize returns the read buffer size in bytes
func (c *ScanConfig) BufferSize() int {
	return c.BufferSizeKB * 1024
}
