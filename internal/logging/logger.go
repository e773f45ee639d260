// Package logging wraps log/slog with the JSON handler and the persistent
// attribute helpers used across stepviz.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

const fileName = "stepviz.log"

// Logger is safe for concurrent use. Children created by With share the
// parent's handler and file.
type Logger struct {
	logger *slog.Logger
	file   *fileRef
	attrs  []any
}

type fileRef struct {
	mu sync.Mutex
	f  *os.File
}

// NewLogger writes JSON lines to {dir}/stepviz.log, or to stderr when dir
// is empty. Unknown levels fall back to INFO.
func NewLogger(dir, level string) (*Logger, error) {
	var w io.Writer = os.Stderr
	ref := &fileRef{}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(dir, fileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		ref.f = f
		w = f
	}
	l := New(w, level)
	l.file = ref
	return l, nil
}

// New logs JSON lines to w.
func New(w io.Writer, level string) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return &Logger{logger: slog.New(h), file: &fileRef{}}
}

// NopLogger discards everything.
func NopLogger() *Logger {
	return New(io.Discard, LevelError)
}

func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// With returns a child logger that adds the alternating key/value pairs to
// every entry. Pairs with a non-string key are dropped.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}
	attrs := append([]any(nil), l.attrs...)
	for i := 0; i+1 < len(args); i += 2 {
		if _, ok := args[i].(string); ok {
			attrs = append(attrs, args[i], args[i+1])
		}
	}
	return &Logger{logger: l.logger, file: l.file, attrs: attrs}
}

func (l *Logger) WithAlgorithm(id string) *Logger { return l.With("algorithm", id) }

func (l *Logger) WithComponent(name string) *Logger { return l.With("component", name) }

func (l *Logger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

func (l *Logger) log(level slog.Level, msg string, args []any) {
	all := make([]any, 0, len(l.attrs)+len(args))
	all = append(all, l.attrs...)
	all = append(all, args...)
	l.logger.Log(context.Background(), level, msg, all...)
}

// Slog exposes the underlying logger for libraries that take *slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.logger.With(l.attrs...)
}

// Close syncs and closes the log file, if any. It is safe to call more than
// once and from any child.
func (l *Logger) Close() error {
	l.file.mu.Lock()
	defer l.file.mu.Unlock()
	if l.file.f == nil {
		return nil
	}
	if err := l.file.f.Sync(); err != nil {
		return fmt.Errorf("sync log file: %w", err)
	}
	err := l.file.f.Close()
	l.file.f = nil
	if err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}
