// Event log records and the stable line format consumed by analysis tooling
package eventlog

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// EventType classifies an observable event.
type EventType string

// Event types appearing in the log.
const (
	EventSend     EventType = "SEND"
	EventReceive  EventType = "RECEIVE"
	EventInternal EventType = "INTERNAL"
)

// Record is one append-only log entry. Clock is the logical clock value
// after the event's update was applied.
type Record struct {
	Timestamp time.Time
	Type      EventType
	Clock     uint64
	Detail    string
}

// separator joins the four line fields. Detail text must never contain it.
const separator = " - "

var queueLenRe = regexp.MustCompile(`Queue length: (\d+)`)

// ReceiveDetail builds the RECEIVE detail string. queueLen is the inbound
// queue length measured immediately after the dequeue.
func ReceiveDetail(sender, queueLen int) string {
	return fmt.Sprintf("Received from VM %d. Queue length: %d", sender, queueLen)
}

// SendDetail builds the SEND detail string.
func SendDetail(target int) string {
	return fmt.Sprintf("Sent to VM %d", target)
}

// InternalDetail builds the INTERNAL detail string.
func InternalDetail() string {
	return "Internal event occurred"
}

// QueueLength extracts the queue length embedded in a RECEIVE detail.
// It reports false for details that carry none.
func QueueLength(detail string) (int, bool) {
	m := queueLenRe.FindStringSubmatch(detail)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatLine renders a record as one log line (without trailing newline):
//
//	<timestamp:.3f> - <EVENT_TYPE> - Logical Clock: <int> - <detail>
func FormatLine(r Record) string {
	secs := float64(r.Timestamp.UnixMilli()) / 1000
	return fmt.Sprintf("%.3f%s%s%sLogical Clock: %d%s%s",
		secs, separator, r.Type, separator, r.Clock, separator, r.Detail)
}

// ParseLine parses a log line back into a Record. Timestamps round-trip
// at the millisecond precision the format carries.
func ParseLine(line string) (Record, error) {
	parts := strings.SplitN(strings.TrimRight(line, "\n"), separator, 4)
	if len(parts) != 4 {
		return Record{}, fmt.Errorf("expected 4 fields, got %d", len(parts))
	}
	secs, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Record{}, fmt.Errorf("bad timestamp %q: %w", parts[0], err)
	}
	typ := EventType(parts[1])
	switch typ {
	case EventSend, EventReceive, EventInternal:
	default:
		return Record{}, fmt.Errorf("unknown event type %q", parts[1])
	}
	clockStr, ok := strings.CutPrefix(parts[2], "Logical Clock: ")
	if !ok {
		return Record{}, fmt.Errorf("bad clock field %q", parts[2])
	}
	clock, err := strconv.ParseUint(clockStr, 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("bad clock value %q: %w", clockStr, err)
	}
	return Record{
		Timestamp: time.UnixMilli(int64(math.Round(secs * 1000))),
		Type:      typ,
		Clock:     clock,
		Detail:    parts[3],
	}, nil
}
