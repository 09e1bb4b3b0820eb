package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Log is the global logger
	Log *zap.SugaredLogger

	// logger is the underlying zap logger
	logger *zap.Logger
)

// Init initializes the global logger with the given level and format.
// format is "json" or "console" ("text" is accepted as console).
func Init(level, format string) error {
	config, err := Config(level, format)
	if err != nil {
		return err
	}

	logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	Log = logger.Sugar()
	return nil
}

// Config returns the zap configuration Init builds from
func Config(level, format string) (zap.Config, error) {
	var config zap.Config

	switch strings.ToLower(format) {
	case "json":
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.EncoderConfig.CallerKey = "caller"
		config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	case "console", "text", "":
		// group reports are read by people; keep lines short
		config = zap.NewDevelopmentConfig()
		config.Encoding = "console"
		config.DisableCaller = true
		config.DisableStacktrace = true
		config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return zap.Config{}, fmt.Errorf("invalid log format: %s", format)
	}

	zapLevel, err := parseLevel(level)
	if err != nil {
		return zap.Config{}, err
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.MessageKey = "msg"

	return config, nil
}

// parseLevel converts string log level to zapcore.Level
func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s", level)
	}
}

// Sync flushes any buffered log entries
func Sync() error {
	if logger != nil {
		return logger.Sync()
	}
	return nil
}

// GetZapLogger returns the underlying zap.Logger, or a no-op logger before
// Init
func GetZapLogger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
