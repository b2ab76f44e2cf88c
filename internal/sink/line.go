// Package sink implements the append-only outputs of a recording session:
// a newline-delimited JSON log and a fixed-width binary frame stream.
//
// Both sinks follow the same lifecycle. Open acquires the destination,
// every write is followed by a sync, and Close releases it. A nil sink
// (no destination configured) accepts every call as a no-op.
package sink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrClosed is returned when writing to a sink after Close.
var ErrClosed = errors.New("sink: closed")

// appendFile opens path for appending, creating parent directories.
func appendFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

// LineSink appends one serialized record per line.
type LineSink struct {
	path string
	file *os.File
}

// OpenLine opens the line log at path. An empty path returns a nil sink.
func OpenLine(path string) (*LineSink, error) {
	if path == "" {
		return nil, nil
	}
	f, err := appendFile(path)
	if err != nil {
		return nil, fmt.Errorf("sink: open line log: %w", err)
	}
	return &LineSink{path: path, file: f}, nil
}

// Write appends line followed by a newline and syncs the file.
func (s *LineSink) Write(line []byte) error {
	if s == nil {
		return nil
	}
	if s.file == nil {
		return ErrClosed
	}
	buf := make([]byte, 0, len(line)+1)
	buf = append(append(buf, line...), '\n')
	if _, err := s.file.Write(buf); err != nil {
		return fmt.Errorf("sink: write line: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sink: sync line log: %w", err)
	}
	return nil
}

// Path returns the destination path ("" for a nil sink).
func (s *LineSink) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close releases the file. Closing twice is a no-op.
func (s *LineSink) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
