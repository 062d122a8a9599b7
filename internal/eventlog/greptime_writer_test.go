package eventlog

import (
	"context"
	"testing"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
)

type mockGreptimeClient struct {
	table *table.Table
}

func (m *mockGreptimeClient) Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error) {
	if len(tables) > 0 {
		m.table = tables[0]
	}
	return &gpb.GreptimeResponse{}, nil
}

func TestGreptimeWriterReceiveRecord(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, table: "clock_events", vmID: 2, trial: 1}

	r := Record{
		Timestamp: time.Unix(10, 0).UTC(),
		Type:      EventReceive,
		Clock:     11,
		Detail:    ReceiveDetail(3, 4),
	}
	if err := w.Write(r); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if m.table == nil {
		t.Fatalf("expected table to be captured")
	}

	values := m.table.GetRows().Rows[0].Values
	if got := values[0].GetI64Value(); got != 2 {
		t.Fatalf("vm_id = %d, want 2", got)
	}
	if got := values[2].GetStringValue(); got != "RECEIVE" {
		t.Fatalf("event_type = %s, want RECEIVE", got)
	}
	if got := values[4].GetI64Value(); got != 4 {
		t.Fatalf("queue_len = %d, want 4", got)
	}
}

func TestGreptimeWriterInternalRecordHasNoQueueLen(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, table: "clock_events", vmID: 1, trial: 1}

	r := Record{Timestamp: time.Unix(0, 0).UTC(), Type: EventInternal, Clock: 6, Detail: InternalDetail()}
	if err := w.Write(r); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := m.table.GetRows().Rows[0].Values[4].GetI64Value(); got != -1 {
		t.Fatalf("queue_len = %d, want -1", got)
	}
}
