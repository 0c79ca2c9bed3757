// Package logging writes one JSON object per line.
// Every entry carries "ts" (RFC3339Nano in the configured location) and "level".
package logging

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Logger emits JSON log lines to a writer. It is safe for concurrent use.
type Logger struct {
	mu  sync.Mutex
	enc *json.Encoder
	loc *time.Location
}

// New returns a Logger writing to w with timestamps in loc.
// A nil loc means UTC.
func New(w io.Writer, loc *time.Location) *Logger {
	if loc == nil {
		loc = time.UTC
	}
	return &Logger{enc: json.NewEncoder(w), loc: loc}
}

// Stdout returns a Logger writing to standard output.
func Stdout(loc *time.Location) *Logger {
	return New(os.Stdout, loc)
}

// Log writes fields as a single line. "level" defaults to "error" when
// status is "error", otherwise "info". The map is modified in place.
func (l *Logger) Log(fields map[string]any) {
	fields["ts"] = time.Now().In(l.loc).Format(time.RFC3339Nano)
	if _, ok := fields["level"]; !ok {
		if fields["status"] == "error" {
			fields["level"] = "error"
		} else {
			fields["level"] = "info"
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.enc.Encode(fields)
}

// Info logs msg with the given fields at info level.
func (l *Logger) Info(msg string, fields map[string]any) {
	l.Log(with(fields, "info", msg))
}

// Error logs msg and err at error level.
func (l *Logger) Error(msg string, err error, fields map[string]any) {
	entry := with(fields, "error", msg)
	if err != nil {
		entry["error"] = err.Error()
	}
	l.Log(entry)
}

func with(fields map[string]any, level, msg string) map[string]any {
	entry := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		entry[k] = v
	}
	entry["level"] = level
	entry["msg"] = msg
	return entry
}
