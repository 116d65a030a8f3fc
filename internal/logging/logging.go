// Package logging provides structured logging using Go's slog package.
//
// Logs go to stderr so that command reports on stdout stay machine readable.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

var (
	// defaultLogger is the global logger instance.
	defaultLogger *slog.Logger

	// output is where InitLogger sends log records.
	output io.Writer = os.Stderr
)

func init() {
	// Quiet by default: warnings and errors as text.
	InitLogger(LevelWarn, FormatText)
}

// Level represents a log level.
type Level int

const (
	// LevelDebug is for debug messages.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// Format represents a log output format.
type Format int

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON Format = iota
	// FormatText outputs logs in human-readable text format.
	FormatText
)

// ParseLevel maps a flag value such as "debug" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// ParseFormat maps a flag value such as "json" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	default:
		return FormatText, fmt.Errorf("unknown log format %q", s)
	}
}

// InitLogger initializes the global logger with the specified level and format.
func InitLogger(level Level, format Format) {
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelInfo:
		slogLevel = slog.LevelInfo
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Customize timestamp format
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger {
	return defaultLogger
}

// ForRun returns the global logger tagged with a correction run ID.
func ForRun(runID string) *slog.Logger {
	return defaultLogger.With("run_id", runID)
}

// Helper functions for common logging patterns

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// DocumentOpened logs a successfully parsed input document.
func DocumentOpened(path string, paragraphs int, hash string, args ...any) {
	allArgs := []any{
		"path", path,
		"paragraphs", paragraphs,
		"blake3", hash,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("document_opened", allArgs...)
}

// DocumentSaved logs a written output document.
func DocumentSaved(path, hash string, args ...any) {
	allArgs := []any{
		"path", path,
		"blake3", hash,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("document_saved", allArgs...)
}

// RuleApplied logs a rule that changed a paragraph.
func RuleApplied(rule string, paragraph int, args ...any) {
	allArgs := []any{
		"rule", rule,
		"paragraph", paragraph,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Debug("rule_applied", allArgs...)
}

// RuleNoMatch logs a rule that left the document unchanged.
func RuleNoMatch(rule, reason string, args ...any) {
	allArgs := []any{
		"rule", rule,
		"reason", reason,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Warn("rule_no_match", allArgs...)
}

// BackupWritten logs a compressed backup of an input document.
func BackupWritten(source, backup string, args ...any) {
	allArgs := []any{
		"source", source,
		"backup", backup,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("backup_written", allArgs...)
}

// RunFailed logs a correction run aborted by err.
func RunFailed(operation string, err error, args ...any) {
	allArgs := []any{
		"operation", operation,
		"error", err.Error(),
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Error("run_failed", allArgs...)
}
