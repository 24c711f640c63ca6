package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerLevel(t *testing.T) {
	logger := NewLogger("debug")
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %s", logger.GetLevel())
	}

	logger = NewLogger("invalid")
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %s", logger.GetLevel())
	}

	logger = NewLogger("")
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info for empty level, got %s", logger.GetLevel())
	}
}

func TestNewLoggerWithFileWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mm.log")
	logger, closer := NewLoggerWithFile("warn", path)
	if logger.GetLevel() != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %s", logger.GetLevel())
	}
	logger.Warn().Str("account", "abc").Msg("cycle failed")
	logger.Info().Msg("filtered")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"account":"abc"`) || strings.Contains(string(data), "filtered") {
		t.Fatalf("unexpected log contents: %s", data)
	}
}

func TestNewLoggerWithFileEmptyPath(t *testing.T) {
	logger, closer := NewLoggerWithFile("error", "")
	if logger.GetLevel() != zerolog.ErrorLevel {
		t.Fatalf("expected error level, got %s", logger.GetLevel())
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("nop closer should not fail: %v", err)
	}
}
