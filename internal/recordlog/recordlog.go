// Package recordlog appends newline-delimited JSON records to a log file.
//
// The logs are append-only: nothing in funnelbot reads them back. Appends
// take an exclusive flock so sessions running in separate processes on the
// same host cannot interleave partial lines.
package recordlog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"syscall"
)

// Log is an append-only NDJSON file.
type Log struct {
	path string
	mu   sync.Mutex
}

// New creates a log writing to the given path. The file is created on first
// append.
func New(path string) *Log {
	return &Log{path: path}
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Append marshals the record and appends it as one line. The write happens
// under an exclusive file lock; a failure leaves the file unchanged apart
// from a possible trailing partial line, which readers must tolerate.
func (l *Log) Append(record any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", l.path, err)
	}
	defer file.Close()

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("failed to lock log file %s: %w", l.path, err)
	}
	defer func() {
		if err := syscall.Flock(int(file.Fd()), syscall.LOCK_UN); err != nil {
			slog.Warn("recordlog.Append: failed to unlock log file", "error", err, "path", l.path)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("failed to append record to %s: %w", l.path, err)
	}
	return nil
}
