package eventlog

import "fmt"

// Writer is an interface to support different event record sinks.
type Writer interface {
	Write(Record) error
}

// StdoutWriter prints records to STDOUT, prefixed with the VM identity
// so interleaved output from multiple processes stays readable.
type StdoutWriter struct {
	VMID int
}

// Write outputs a single record.
func (w *StdoutWriter) Write(r Record) error {
	fmt.Printf("VM %d: %s\n", w.VMID, FormatLine(r))
	return nil
}

// MultiWriter fans records out to multiple writers. Every writer is
// attempted even when an earlier one fails, so a broken secondary sink
// cannot starve the contract file sink. The first error is returned.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ws ...Writer) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// Write sends a record to all writers.
func (mw *MultiWriter) Write(r Record) error {
	var first error
	for _, w := range mw.writers {
		if err := w.Write(r); err != nil && first == nil {
			first = err
		}
	}
	return first
}
