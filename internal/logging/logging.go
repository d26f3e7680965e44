// Package logging builds the process-wide zap logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects the level, the console encoding and an optional rotated
// log file.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // console or json
	File   string // empty disables file output
}

// DefaultConfig logs warnings and above to stderr in console format, so
// command output stays readable.
func DefaultConfig() Config {
	return Config{Level: "warn", Format: "console"}
}

// LoadConfig reads DERMALOOP_LOG_LEVEL, DERMALOOP_LOG_FORMAT and
// DERMALOOP_LOG_FILE over the defaults.
func LoadConfig() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("DERMALOOP_LOG_LEVEL"); v != "" {
		cfg.Level = v
	}
	if v := os.Getenv("DERMALOOP_LOG_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("DERMALOOP_LOG_FILE"); v != "" {
		cfg.File = v
	}
	return cfg
}

// New builds a logger writing to stderr and, when cfg.File is set, to a
// size-rotated JSON file.
func New(cfg Config) (*zap.Logger, error) {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg Config, console io.Writer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var consoleEnc zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "", "console":
		dev := zap.NewDevelopmentEncoderConfig()
		dev.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		consoleEnc = zapcore.NewConsoleEncoder(dev)
	case "json":
		consoleEnc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, zapcore.Lock(zapcore.AddSync(console)), level),
	}
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     30, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(rotator), level))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}
