package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"clocksim/internal/eventlog"
)

func TestNewRecordWritersFileOnly(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	dir := t.TempDir()

	w, cleanup, err := newRecordWriters(dir, 1, 1, false)
	if err != nil {
		t.Fatalf("newRecordWriters: %v", err)
	}
	defer cleanup()

	if _, ok := w.(*eventlog.FileWriter); !ok {
		t.Fatalf("expected *eventlog.FileWriter, got %T", w)
	}
	rec := eventlog.Record{
		Timestamp: time.Now(),
		Type:      eventlog.EventInternal,
		Clock:     1,
		Detail:    eventlog.InternalDetail(),
	}
	if err := w.Write(rec); err != nil {
		t.Fatalf("write: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, eventlog.FileName(1, 1)))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("expected log file to be non-empty")
	}
}

func TestNewRecordWritersPrintRecords(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	w, cleanup, err := newRecordWriters(t.TempDir(), 2, 1, true)
	if err != nil {
		t.Fatalf("newRecordWriters: %v", err)
	}
	defer cleanup()
	if _, ok := w.(*eventlog.MultiWriter); !ok {
		t.Fatalf("expected *eventlog.MultiWriter, got %T", w)
	}
}
