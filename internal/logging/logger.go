// Package logging provides leveled operational logging and per-step spike
// traces for neuronet runs.
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LevelTrace sits below Debug and enables per-tick detail.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps "info", "debug", "trace" and "warn" (case-insensitive)
// to a slog.Level. Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	case "warn", "warning":
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled text logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// SpikeTraceLogger appends one JSON object per outer step to
// dir/spikes.jsonl. A nil SpikeTraceLogger is valid and discards
// everything.
type SpikeTraceLogger struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// NewSpikeTraceLogger returns nil at info level or when the trace file
// cannot be opened.
func NewSpikeTraceLogger(dir string, level string) *SpikeTraceLogger {
	if ParseLevel(level) > slog.LevelDebug {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil
	}
	path := filepath.Join(dir, "spikes.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil
	}
	return &SpikeTraceLogger{file: f, path: path}
}

func (l *SpikeTraceLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Log writes event as a single JSONL line. The caller's map is not
// retained.
func (l *SpikeTraceLogger) Log(event map[string]any) {
	if l == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	_, _ = l.file.Write(data)
}

func (l *SpikeTraceLogger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
