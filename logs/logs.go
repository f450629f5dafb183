// Package logs configures zap for the two output formats the library's
// services use: human console output and JSON lines carrying a constant
// version field.
package logs

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format selects the log output encoding.
type Format string

const (
	// FormatJSON emits one JSON object per line with a version field.
	FormatJSON Format = "json"
	// FormatConsole emits human-readable lines.
	FormatConsole Format = "console"
)

const timeLayout = "2006-01-02 15:04:05"

// Init builds a zap logger for the given format. The version string is
// attached to every JSON record so log aggregators can tell releases
// apart.
func Init(format Format, version string, opts ...zap.Option) (*zap.Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "asctime"
	encoderCfg.MessageKey = "message"
	encoderCfg.LevelKey = "levelname"
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zap.InfoLevel),
		EncoderConfig:    encoderCfg,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	switch format {
	case FormatJSON:
		cfg.Encoding = "json"
		cfg.InitialFields = map[string]any{"version": version}
	case FormatConsole:
		cfg.Encoding = "console"
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	return cfg.Build(opts...)
}

// MustInit is Init that panics on an invalid format. Meant for service
// entry points where a bad format is a programming error.
func MustInit(format Format, version string, opts ...zap.Option) *zap.Logger {
	logger, err := Init(format, version, opts...)
	if err != nil {
		panic(err)
	}
	return logger
}
