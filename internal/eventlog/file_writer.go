package eventlog

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileName returns the log file name for a VM in a given trial. The
// naming is part of the external contract: analysis tooling globs for it.
func FileName(vmID, trial int) string {
	return fmt.Sprintf("vm_%d_trial%d.log", vmID, trial)
}

// FileWriter appends records to a log file, one line per record. Every
// write reaches the file before Write returns, so a crash loses at most
// the record in flight.
type FileWriter struct {
	file   *os.File
	closed bool
}

// NewFileWriter opens (or creates) the log file for appending.
func NewFileWriter(dir string, vmID, trial int) (*FileWriter, error) {
	path := filepath.Join(dir, FileName(vmID, trial))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return &FileWriter{file: f}, nil
}

// Path returns the underlying file path.
func (w *FileWriter) Path() string {
	return w.file.Name()
}

// Write appends a single record.
func (w *FileWriter) Write(r Record) error {
	if w.closed {
		return os.ErrClosed
	}
	if _, err := w.file.WriteString(FormatLine(r) + "\n"); err != nil {
		return fmt.Errorf("append event log: %w", err)
	}
	return nil
}

// Close closes the underlying file. Closing an already-closed writer is
// a no-op.
func (w *FileWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}
