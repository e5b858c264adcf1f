package testutil

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// LogCapture captures slog JSON output for testing. It is safe to log from
// a background goroutine while the test reads entries.
type LogCapture struct {
	mu      sync.Mutex
	entries []LogEntry
	logger  *slog.Logger
}

// LogEntry represents a parsed log entry.
type LogEntry struct {
	Level   string
	Message string
	Time    time.Time
	Fields  map[string]any
}

// NewLogCapture creates a new log capture at debug level.
func NewLogCapture() *LogCapture {
	lc := &LogCapture{}
	lc.logger = slog.New(slog.NewJSONHandler(lc, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return lc
}

// Logger returns the slog.Logger that writes to this capture.
func (lc *LogCapture) Logger() *slog.Logger {
	return lc.logger
}

// Write receives one JSON record per call from the slog handler.
func (lc *LogCapture) Write(p []byte) (int, error) {
	var raw map[string]any
	if err := json.Unmarshal(p, &raw); err != nil {
		return 0, fmt.Errorf("log capture: %w", err)
	}

	entry := LogEntry{Fields: make(map[string]any)}
	for k, v := range raw {
		switch k {
		case slog.LevelKey:
			entry.Level, _ = v.(string)
		case slog.MessageKey:
			entry.Message, _ = v.(string)
		case slog.TimeKey:
			if s, ok := v.(string); ok {
				entry.Time, _ = time.Parse(time.RFC3339Nano, s)
			}
		default:
			entry.Fields[k] = v
		}
	}

	lc.mu.Lock()
	lc.entries = append(lc.entries, entry)
	lc.mu.Unlock()
	return len(p), nil
}

// Entries returns a copy of all captured log entries.
func (lc *LogCapture) Entries() []LogEntry {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return append([]LogEntry(nil), lc.entries...)
}

// Find returns entries matching the level and message substring. Empty
// arguments match anything.
func (lc *LogCapture) Find(level string, msgSubstring string) []LogEntry {
	var results []LogEntry
	for _, entry := range lc.Entries() {
		if (level == "" || strings.EqualFold(entry.Level, level)) &&
			(msgSubstring == "" || strings.Contains(entry.Message, msgSubstring)) {
			results = append(results, entry)
		}
	}
	return results
}

// HasError returns true if any ERROR level entries were captured.
func (lc *LogCapture) HasError() bool {
	return len(lc.Find("ERROR", "")) > 0
}

// Clear removes all captured entries.
func (lc *LogCapture) Clear() {
	lc.mu.Lock()
	lc.entries = nil
	lc.mu.Unlock()
}
