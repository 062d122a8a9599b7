package eventlog

import (
	"strings"
	"testing"
	"time"
)

func TestFormatLineContract(t *testing.T) {
	r := Record{
		Timestamp: time.UnixMilli(1700000000123),
		Type:      EventReceive,
		Clock:     42,
		Detail:    ReceiveDetail(2, 3),
	}
	line := FormatLine(r)
	want := "1700000000.123 - RECEIVE - Logical Clock: 42 - Received from VM 2. Queue length: 3"
	if line != want {
		t.Fatalf("line = %q, want %q", line, want)
	}
	if strings.Count(line, " - ") != 3 {
		t.Fatalf("expected exactly four fields, got %q", line)
	}
}

func TestLineRoundTrip(t *testing.T) {
	cases := []Record{
		{Timestamp: time.UnixMilli(1700000000001), Type: EventSend, Clock: 1, Detail: SendDetail(3)},
		{Timestamp: time.UnixMilli(1700000123456), Type: EventReceive, Clock: 17, Detail: ReceiveDetail(1, 0)},
		{Timestamp: time.UnixMilli(1700009999999), Type: EventInternal, Clock: 250, Detail: InternalDetail()},
	}
	for _, want := range cases {
		got, err := ParseLine(FormatLine(want))
		if err != nil {
			t.Fatalf("parse %q: %v", FormatLine(want), err)
		}
		if !got.Timestamp.Equal(want.Timestamp) || got.Type != want.Type ||
			got.Clock != want.Clock || got.Detail != want.Detail {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
		}
	}
}

func TestParseLineRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"1.000 - SEND - Logical Clock: 1",
		"abc - SEND - Logical Clock: 1 - Sent to VM 2",
		"1.000 - NOPE - Logical Clock: 1 - x",
		"1.000 - SEND - Clock 1 - x",
		"1.000 - SEND - Logical Clock: x - x",
	}
	for _, line := range bad {
		if _, err := ParseLine(line); err == nil {
			t.Errorf("ParseLine(%q) succeeded, want error", line)
		}
	}
}

func TestQueueLength(t *testing.T) {
	if n, ok := QueueLength(ReceiveDetail(5, 12)); !ok || n != 12 {
		t.Fatalf("QueueLength = %d, %v", n, ok)
	}
	if _, ok := QueueLength(SendDetail(1)); ok {
		t.Fatal("SEND detail should carry no queue length")
	}
	if _, ok := QueueLength(InternalDetail()); ok {
		t.Fatal("INTERNAL detail should carry no queue length")
	}
}

func TestDetailsAvoidSeparator(t *testing.T) {
	details := []string{ReceiveDetail(1, 2), SendDetail(3), InternalDetail()}
	for _, d := range details {
		if strings.Contains(d, " - ") {
			t.Errorf("detail %q contains the field separator", d)
		}
	}
}
