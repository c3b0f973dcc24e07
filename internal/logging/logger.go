package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// New creates a configured application logger.
// It writes to Stderr (to separate from Stdout banner output).
// It standardizes common keys (e.g., "error" -> "err").
func New(level slog.Level) *slog.Logger {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter creates a logger with the standard options on an arbitrary sink.
func NewWithWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Standardize 'error' key to 'err'
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}

// NewTee creates a logger that writes every record both to Stderr and to the
// file at path (opened in append mode). The returned Tee must be closed on exit.
func NewTee(level slog.Level, path string) (*slog.Logger, *Tee, error) {
	tee, err := OpenTee(os.Stderr, path)
	if err != nil {
		return nil, nil, err
	}
	return NewWithWriter(tee, level), tee, nil
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel converts a textual level ("debug", "info", "warn", "error") to slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// Tee duplicates writes to a terminal and a log file.
// A failing file never blocks terminal output.
type Tee struct {
	mu       sync.Mutex
	terminal io.Writer
	file     *os.File
	fileErr  error
}

// OpenTee opens (or creates) the log file at path and pairs it with terminal.
func OpenTee(terminal io.Writer, path string) (*Tee, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to ensure log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &Tee{terminal: terminal, file: f}, nil
}

// Write sends p to both destinations. The terminal result is authoritative.
// The first file failure is announced once on the terminal and returned by Close.
func (t *Tee) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file != nil {
		if _, err := t.file.Write(p); err != nil && t.fileErr == nil {
			t.fileErr = err
			fmt.Fprintf(t.terminal, "log file write failed, further file errors are not reported: %v\n", err)
		}
	}
	return t.terminal.Write(p)
}

// Flush is a no-op: both destinations are unbuffered.
func (t *Tee) Flush() error {
	return nil
}

// Close releases the log file. The terminal is left open.
func (t *Tee) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil {
		return nil
	}
	err := errors.Join(t.fileErr, t.file.Close())
	t.file = nil
	return err
}
