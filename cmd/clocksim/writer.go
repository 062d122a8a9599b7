package main

import (
	"os"

	"clocksim/internal/eventlog"
)

// newRecordWriters assembles the event record sinks for one VM based on
// flags and env vars. The file writer is always present; its log is
// what the run and report commands consume. It returns the combined
// writer and a cleanup function closing any resources.
func newRecordWriters(logDir string, vmID, trial int, printRecords bool) (eventlog.Writer, func(), error) {
	fw, err := eventlog.NewFileWriter(logDir, vmID, trial)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { fw.Close() }

	writers := []eventlog.Writer{fw}
	if printRecords {
		writers = append(writers, &eventlog.StdoutWriter{VMID: vmID})
	}
	if endpoint := os.Getenv("GREPTIMEDB_ENDPOINT"); endpoint != "" {
		database := os.Getenv("GREPTIMEDB_DATABASE")
		if database == "" {
			database = "public"
		}
		gw, err := eventlog.NewGreptimeDBWriter(endpoint, database, vmID, trial)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		writers = append(writers, gw)
	}

	if len(writers) == 1 {
		return fw, cleanup, nil
	}
	return eventlog.NewMultiWriter(writers...), cleanup, nil
}
