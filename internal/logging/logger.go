// Package logging provides the shared leveled logger for vaultfs.
package logging

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

// Logger wraps a charmbracelet logger with a component prefix.
type Logger struct {
	l *log.Logger
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// GetLogger returns the default logger instance.
func GetLogger() *Logger {
	once.Do(func() {
		defaultLogger = &Logger{
			l: log.NewWithOptions(os.Stderr, log.Options{
				Prefix:          "vaultfs",
				ReportTimestamp: true,
			}),
		}

		// Set initial log level from environment
		if level := os.Getenv("VAULTFS_LOG_LEVEL"); level != "" {
			defaultLogger.SetLevelName(level)
		}
	})
	return defaultLogger
}

// SetLevelName sets the logging level by name (debug, info, warn, error).
// Unknown names leave the level unchanged.
func (l *Logger) SetLevelName(name string) {
	if lvl, err := log.ParseLevel(name); err == nil {
		l.l.SetLevel(lvl)
	}
}

// SetLevel sets the logging level.
func (l *Logger) SetLevel(level log.Level) {
	l.l.SetLevel(level)
}

// Error logs an error message with optional key/value pairs.
func (l *Logger) Error(msg string, kv ...any) {
	l.l.Error(msg, kv...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, kv ...any) {
	l.l.Warn(msg, kv...)
}

// Info logs an informational message.
func (l *Logger) Info(msg string, kv ...any) {
	l.l.Info(msg, kv...)
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, kv ...any) {
	l.l.Debug(msg, kv...)
}

// WithPrefix returns a logger for a named component.
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{l: l.l.WithPrefix(prefix)}
}
