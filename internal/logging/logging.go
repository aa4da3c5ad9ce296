// Package logging builds the zerolog loggers used across carbonconsult and
// carries them through context.Context.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Output format names.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config describes how to build a logger.
type Config struct {
	// Level is a zerolog level name; unparseable values fall back to info.
	Level string
	// Format is "json" or "console".
	Format string
	// File, when set, redirects output to that file instead of Stderr.
	File string
	// Caller adds file:line to each entry.
	Caller bool
}

// Result is the outcome of NewLogger.
type Result struct {
	Logger zerolog.Logger
	// FilePath is the log file in use, empty when logging to Stderr.
	FilePath string
	// FallbackReason explains why a configured file could not be used.
	FallbackReason string

	file *os.File
}

// Close releases the log file, if one was opened.
func (r *Result) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// NewLogger builds a logger from cfg writing to stderr (or cfg.File).
// A log file that cannot be opened falls back to stderr and sets FallbackReason.
func NewLogger(cfg Config) *Result {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg Config, stderr io.Writer) *Result {
	res := &Result{}

	var out io.Writer = stderr
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
			res.FallbackReason = fmt.Sprintf("creating log directory: %v", err)
		} else if f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600); err != nil {
			res.FallbackReason = fmt.Sprintf("opening log file: %v", err)
		} else {
			res.file = f
			res.FilePath = cfg.File
			out = f
		}
	}

	if strings.EqualFold(cfg.Format, FormatConsole) && res.file == nil {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).Level(ParseLevel(cfg.Level)).With().Timestamp()
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	res.Logger = ctx.Logger()
	return res
}

// ParseLevel parses a level name, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// ComponentLogger returns a child logger tagged with a component name.
func ComponentLogger(l zerolog.Logger, component string) zerolog.Logger {
	return l.With().Str("component", component).Logger()
}

//nolint:gochecknoglobals // Fallback for contexts that carry no logger.
var (
	fallbackMu     sync.RWMutex
	fallbackLogger = zerolog.Nop()
)

// SetFallback sets the logger returned by FromContext for contexts without one.
func SetFallback(l zerolog.Logger) {
	fallbackMu.Lock()
	defer fallbackMu.Unlock()
	fallbackLogger = l
}

// FromContext returns the logger stored in ctx, or the fallback logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
			return l
		}
	}
	fallbackMu.RLock()
	defer fallbackMu.RUnlock()
	l := fallbackLogger
	return &l
}
