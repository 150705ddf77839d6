// Package logging configures structured logging for dithr.
//
// All diagnostics go through log/slog with a tint handler on stderr. REPL output
// meant for the user is printed directly by the cli package and is not routed here.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

// Component names attached to every record as the "component" attribute.
const (
	ComponentStartup  = "startup"
	ComponentPipeline = "pipeline"
	ComponentSource   = "source"
	ComponentPreview  = "preview"
	ComponentConfig   = "config"
	ComponentCLI      = "cli"
	ComponentUpdate   = "update"
)

var (
	mu     sync.RWMutex
	logger = New(os.Stderr, slog.LevelInfo, false)
)

// ParseLevel maps debug|info|warn|error to a slog.Level. Unknown values return info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a tint-backed logger writing to w.
func New(w io.Writer, level slog.Leveler, noColor bool) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	}))
}

// Setup replaces the package logger. NO_COLOR disables ANSI colors.
func Setup(w io.Writer, level string) {
	_, noColor := os.LookupEnv("NO_COLOR")
	SetLogger(New(w, ParseLevel(level), noColor))
}

// SetLogger installs l as the package logger and slog default.
func SetLogger(l *slog.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
	slog.SetDefault(l)
}

// Logger returns the current package logger.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// WithComponent returns a child logger tagged with component.
func WithComponent(component string) *slog.Logger {
	return Logger().With("component", component)
}

func DebugWithComponent(component, msg string, args ...any) {
	WithComponent(component).Debug(msg, args...)
}

func InfoWithComponent(component, msg string, args ...any) {
	WithComponent(component).Info(msg, args...)
}

func WarnWithComponent(component, msg string, args ...any) {
	WithComponent(component).Warn(msg, args...)
}

func ErrorWithComponent(component, msg string, args ...any) {
	WithComponent(component).Error(msg, args...)
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
