// Package logging configures the process logger: text to stderr, plus a
// JSON rotating file sink when a log file is configured.
package logging

import (
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultLevel is the log level used when not configured.
const DefaultLevel = slog.LevelInfo

// Setup builds the logger. With an empty logFile only the stderr text
// handler is installed.
func Setup(level slog.Level, logFile string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	stderr := slog.NewTextHandler(os.Stderr, opts)

	if logFile == "" {
		return slog.New(stderr)
	}

	sink := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	file := slog.NewJSONHandler(sink, opts)

	return slog.New(slogmulti.Fanout(stderr, file))
}

// ParseLevel converts a string log level to slog.Level. Returns
// (DefaultLevel, false) if the string is not recognized.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return DefaultLevel, false
	}
}
