// Package logsink provides append-only destinations for the prompt and
// completion log.
package logsink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Writer appends to an [io.Writer]. Writes are serialized so they land in
// call order.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter returns a sink writing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Append writes text as is.
func (s *Writer) Append(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, text); err != nil {
		return fmt.Errorf("logsink: %w", err)
	}
	return nil
}

// AppendLine writes text followed by a newline.
func (s *Writer) AppendLine(text string) error {
	return s.Append(text + "\n")
}

// File appends to a file, opening it for every write so that rotation and
// removal by other tools are picked up.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile returns a sink appending to path. Parent directories are created.
func NewFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil { //nolint:mnd
		return nil, fmt.Errorf("logsink: %w", err)
	}
	return &File{path: path}, nil
}

// Path returns the file location.
func (s *File) Path() string { return s.path }

// Append writes text as is.
func (s *File) Append(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) //nolint:mnd
	if err != nil {
		return fmt.Errorf("logsink: %w", err)
	}
	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		return fmt.Errorf("logsink: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("logsink: %w", err)
	}
	return nil
}

// AppendLine writes text followed by a newline.
func (s *File) AppendLine(text string) error {
	return s.Append(text + "\n")
}

// Discard drops everything.
type Discard struct{}

// Append implements the sink.
func (Discard) Append(string) error { return nil }

// AppendLine implements the sink.
func (Discard) AppendLine(string) error { return nil }
