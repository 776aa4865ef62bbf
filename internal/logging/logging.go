// Package logging builds the zap loggers used by the CLI and the pipeline.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultLogLevel = "info"

// Formats accepted by New.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Level resolves the log level: an explicit value wins, then LOG_LEVEL, then
// info. An invalid explicit value is an error; an invalid LOG_LEVEL falls back
// to the default.
func Level(explicit string) (zap.AtomicLevel, error) {
	level := zap.NewAtomicLevel()
	if s := strings.ToLower(strings.TrimSpace(explicit)); s != "" {
		if err := level.UnmarshalText([]byte(s)); err != nil {
			return level, fmt.Errorf("log level %q: %w", explicit, err)
		}
		return level, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))))); err != nil {
		_ = level.UnmarshalText([]byte(defaultLogLevel))
	}
	return level, nil
}

// New builds a logger writing to stderr. Stdout is left to command output.
func New(level, format string) (*zap.Logger, error) {
	return NewWriter(os.Stderr, level, format)
}

// NewWriter builds a logger writing to w in JSON (default) or console format.
func NewWriter(w io.Writer, level, format string) (*zap.Logger, error) {
	lvl, err := Level(level)
	if err != nil {
		return nil, err
	}

	encoderCfg := zapcore.EncoderConfig{
		MessageKey: "message",
		TimeKey:    "timestamp",
		LevelKey:   "severity",
		NameKey:    "logger",
		EncodeTime: zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(strings.ToUpper(level.String()))
		},
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}

	var enc zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		enc = zapcore.NewJSONEncoder(encoderCfg)
	case FormatConsole:
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		return nil, fmt.Errorf("log format %q: expected json or console", format)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), lvl)
	return zap.New(core, zap.ErrorOutput(zapcore.Lock(os.Stderr))), nil
}
