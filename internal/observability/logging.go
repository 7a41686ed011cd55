// Package observability builds the process logger.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tictacmatch/internal/config"
)

// ServiceName is attached to every log entry.
const ServiceName = "tictacmatch"

// NewLogger builds the process logger: JSON lines for "json", colored
// human-readable output for "console". Stack traces are only recorded at
// error level and above.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zapCfg, err := loggerConfig(cfg)
	if err != nil {
		return nil, err
	}
	logger, err := zapCfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

func loggerConfig(cfg config.LoggingConfig) (zap.Config, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return zap.Config{}, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	switch cfg.Format {
	case "json":
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "ts"
		zc.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	case "console":
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		// No sampling: every debug line is kept.
		zc.Sampling = nil
	default:
		return zap.Config{}, fmt.Errorf("log format %q: want json or console", cfg.Format)
	}

	zc.Level = level
	zc.DisableStacktrace = true
	zc.InitialFields = map[string]any{"service": ServiceName}
	return zc, nil
}
