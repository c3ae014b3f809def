// Package obslog is the operational/startup/error logger: JSON lines to a
// file or stdout, distinct from the Ledger's tamper-evident decision log.
// Grounded on the teacher's internal/audit.Logger (json.Encoder over a
// mutex-guarded file, with a stderr fallback logger for encode failures).
package obslog

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

// Fields is a flat bag of structured attributes attached to a log line.
type Fields map[string]any

// Level names the severity of a log line.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

type entry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Fields    Fields    `json:"fields,omitempty"`
}

// Logger writes one JSON object per line. A zero value is not usable; use
// New (an empty path logs to stdout).
type Logger struct {
	mu       sync.Mutex
	file     *os.File
	encoder  *json.Encoder
	fallback *log.Logger
}

// New opens (or creates) path for append and logs JSON lines to it. An
// empty path logs to stdout.
func New(path string) (*Logger, error) {
	file := os.Stdout
	if path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		file = f
	}
	return &Logger{
		file:     file,
		encoder:  json.NewEncoder(file),
		fallback: log.New(os.Stderr, "[obslog] ", log.LstdFlags),
	}, nil
}

func (l *Logger) write(level Level, msg string, fields Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := entry{Timestamp: time.Now().UTC(), Level: level, Message: msg, Fields: fields}
	if err := l.encoder.Encode(e); err != nil {
		l.fallback.Printf("failed to write log entry: %v, entry: %+v", err, e)
	}
}

// Infof logs an informational line with structured fields.
func (l *Logger) Infof(msg string, fields Fields) { l.write(LevelInfo, msg, fields) }

// Warnf logs a warning line with structured fields.
func (l *Logger) Warnf(msg string, fields Fields) { l.write(LevelWarn, msg, fields) }

// Errorf logs an error line with structured fields.
func (l *Logger) Errorf(msg string, fields Fields) { l.write(LevelError, msg, fields) }

// Close closes the underlying file, if any was opened (stdout is left
// open).
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil && l.file != os.Stdout {
		return l.file.Close()
	}
	return nil
}
