package eventlog

import (
	"context"
	"fmt"
	"os"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

// EventTableName holds the table name used when writing to GreptimeDB.
// It defaults to "clock_events" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var EventTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "clock_events"
}()

// greptimeClient abstracts the ingester client for testing.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter mirrors event records into GreptimeDB so clock
// progression and queue backlog can be queried across trials. It is
// always a secondary sink; the file writer stays the format contract.
type GreptimeDBWriter struct {
	client greptimeClient
	table  string
	vmID   int
	trial  int
}

// NewGreptimeDBWriter creates a GreptimeDB writer for one VM's records.
func NewGreptimeDBWriter(endpoint, database string, vmID, trial int) (*GreptimeDBWriter, error) {
	cfg := greptime.NewConfig(endpoint).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	return &GreptimeDBWriter{
		client: client,
		table:  EventTableName,
		vmID:   vmID,
		trial:  trial,
	}, nil
}

// Write inserts a single event record.
func (w *GreptimeDBWriter) Write(r Record) error {
	tbl, err := table.New(w.table)
	if err != nil {
		return fmt.Errorf("greptime table: %w", err)
	}
	if err := tbl.AddTagColumn("vm_id", types.INT64); err != nil {
		return err
	}
	if err := tbl.AddTagColumn("trial", types.INT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("event_type", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("logical_clock", types.UINT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("queue_len", types.INT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("detail", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}

	// queue_len is only meaningful on RECEIVE records; -1 elsewhere.
	qlen := int64(-1)
	if n, ok := QueueLength(r.Detail); ok {
		qlen = int64(n)
	}
	err = tbl.AddRow(int64(w.vmID), int64(w.trial),
		string(r.Type), r.Clock, qlen, r.Detail, r.Timestamp)
	if err != nil {
		return fmt.Errorf("greptime row: %w", err)
	}

	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		return fmt.Errorf("greptime write: %w", err)
	}
	return nil
}
