package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Aman-CERP/textindex/internal/textio"
)

// LogEntry is one parsed JSON log line.
type LogEntry struct {
	Time    time.Time
	Level   string
	Msg     string
	Attrs   map[string]any
	Raw     string
	IsValid bool
}

// ParseLine parses one line written by the JSON handler. Lines that are not
// JSON are kept as raw entries.
func ParseLine(line string) LogEntry {
	entry := LogEntry{Raw: line}

	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return entry
	}

	entry.IsValid = true
	if v, ok := fields[slog.TimeKey].(string); ok {
		entry.Time, _ = time.Parse(time.RFC3339Nano, v)
	}
	if v, ok := fields[slog.LevelKey].(string); ok {
		entry.Level = v
	}
	if v, ok := fields[slog.MessageKey].(string); ok {
		entry.Msg = v
	}
	delete(fields, slog.TimeKey)
	delete(fields, slog.LevelKey)
	delete(fields, slog.MessageKey)
	entry.Attrs = fields
	return entry
}

// Tail returns the last n entries of path at or above minLevel.
// Raw lines are always kept. A non-positive n returns every entry.
func Tail(path string, n int, minLevel string) ([]LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	threshold := parseLevel(minLevel)
	var entries []LogEntry

	err = textio.EachLine(context.Background(), f, func(_ int, line string) bool {
		if strings.TrimSpace(line) == "" {
			return true
		}
		entry := ParseLine(line)
		if entry.IsValid && parseLevel(entry.Level) < threshold {
			return true
		}
		entries = append(entries, entry)
		if n > 0 && len(entries) > 2*n {
			entries = append(entries[:0:0], entries[len(entries)-n:]...)
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}
