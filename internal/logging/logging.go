// ABOUTME: Structured zap logger writing to a file in the config directory
// ABOUTME: Keeps log output off the terminal so the TUI stays clean

package logging

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a structured zap.Logger writing JSON lines to
// <configDir>/spvadmin.log. An empty configDir disables logging.
func New(level, configDir string) (*zap.Logger, error) {
	if configDir == "" {
		return zap.NewNop(), nil
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	lvl := zapcore.InfoLevel
	if err := lvl.Set(strings.ToLower(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(lvl),
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "message",
			LevelKey:   "level",
			TimeKey:    "ts",
			EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
				enc.AppendString(l.String())
			},
			EncodeTime: zapcore.ISO8601TimeEncoder,
		},
		OutputPaths:      []string{filepath.Join(configDir, "spvadmin.log")},
		ErrorOutputPaths: []string{filepath.Join(configDir, "spvadmin.log")},
	}

	return cfg.Build()
}
