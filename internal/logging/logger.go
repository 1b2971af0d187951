// Package logging provides a leveled, optionally colored console logger
// with an optional mirrored file sink. Colors are owned by [term]; this
// package only decides which level maps to which color and where a line
// goes (stdout, stderr, and the log file).
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/castmux/transcoder/internal/config"
	"github.com/castmux/transcoder/internal/term"
	"github.com/google/uuid"
)

// Logger is safe for concurrent use by multiple pipeline goroutines; each
// call to a level method acquires the same mutex for the duration of one
// line, matching how the dispatcher's event-bus consumer serializes event
// text onto this logger.
type Logger struct {
	mu   sync.Mutex
	file *os.File
}

// NewLogger configures term's color state from cfg and optionally opens
// cfg.LogFile. Call Close() when done if LogFile was set.
func NewLogger(cfg *config.Config) (*Logger, error) {
	term.Configure(cfg.ColorMode)

	l := &Logger{}
	if cfg.LogFile != "" {
		dir := filepath.Dir(cfg.LogFile)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		l.file = f
	}
	return l, nil
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

func (l *Logger) line(level, color, text string) {
	ts := time.Now().Format("2006-01-02 15:04:05")
	l.mu.Lock()
	defer l.mu.Unlock()
	plain := ts + " [" + level + "] " + text + "\n"
	out := os.Stdout
	if level == "ERROR" {
		out = os.Stderr
	}
	if color != "" {
		_, _ = io.WriteString(out, ts+" "+color+"["+level+"]"+term.NC+" "+text+"\n")
	} else {
		_, _ = io.WriteString(out, plain)
	}
	if l.file != nil {
		_, _ = io.WriteString(l.file, plain)
	}
}

// Info logs at INFO level (blue).
func (l *Logger) Info(format string, args ...interface{}) {
	l.line("INFO", term.Blue, fmt.Sprintf(format, args...))
}

// Success logs at SUCCESS level (green).
func (l *Logger) Success(format string, args ...interface{}) {
	l.line("SUCCESS", term.Green, fmt.Sprintf(format, args...))
}

// Warn logs at WARN level (yellow).
func (l *Logger) Warn(format string, args ...interface{}) {
	l.line("WARN", term.Yellow, fmt.Sprintf(format, args...))
}

// Error logs at ERROR level (red), to stderr instead of stdout.
func (l *Logger) Error(format string, args ...interface{}) {
	l.line("ERROR", term.Red, fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level (cyan) only when verbose is true.
func (l *Logger) Debug(verbose bool, format string, args ...interface{}) {
	if !verbose {
		return
	}
	l.line("DEBUG", term.Cyan, fmt.Sprintf(format, args...))
}

// JobInfo logs an INFO line prefixed with a short job identifier, the
// shape the dispatcher uses so concurrent pipelines' log lines stay
// attributable to a run without relying on array-index reuse.
func (l *Logger) JobInfo(id uuid.UUID, format string, args ...interface{}) {
	l.Info("[%s] %s", shortID(id), fmt.Sprintf(format, args...))
}

// JobError logs an ERROR line prefixed with a short job identifier.
func (l *Logger) JobError(id uuid.UUID, format string, args ...interface{}) {
	l.Error("[%s] %s", shortID(id), fmt.Sprintf(format, args...))
}

func shortID(id uuid.UUID) string {
	s := id.String()
	if len(s) < 8 {
		return s
	}
	return s[:8]
}
