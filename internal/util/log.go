// Package util holds process-wide helpers shared by the binaries.
package util

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return lvl
}

// NewLogger writes JSON lines to stdout. Unknown levels fall back to info.
func NewLogger(level string) zerolog.Logger {
	return newLogger(os.Stdout, level)
}

// NewLoggerWithFile tees stdout into a size-rotated file. An empty path behaves like NewLogger.
func NewLoggerWithFile(level, path string) (zerolog.Logger, io.Closer) {
	if strings.TrimSpace(path) == "" {
		return NewLogger(level), nopCloser{}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger := NewLogger(level)
			logger.Warn().Err(err).Str("path", path).Msg("log directory unavailable, logging to stdout only")
			return logger, nopCloser{}
		}
	}
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	return newLogger(io.MultiWriter(os.Stdout, file), level), file
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger().Level(parseLevel(level))
}
