package vm

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"clocksim/internal/config"
	"clocksim/internal/eventlog"
	"clocksim/internal/wire"
)

// recorder collects event records for validation.
type recorder struct {
	mu   sync.Mutex
	recs []eventlog.Record
}

func (r *recorder) Write(rec eventlog.Record) error {
	r.mu.Lock()
	r.recs = append(r.recs, rec)
	r.mu.Unlock()
	return nil
}

func (r *recorder) records() []eventlog.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]eventlog.Record, len(r.recs))
	copy(out, r.recs)
	return out
}

func newTestVM(t *testing.T, id int, peers []config.NodeConfig, rec *recorder) *VM {
	t.Helper()
	v, err := New(Config{
		ID:          id,
		Addr:        "127.0.0.1:0",
		Peers:       peers,
		Duration:    time.Second,
		TickRateMin: 10,
		TickRateMax: 10,
		Records:     rec,
		Rand:        rand.New(rand.NewSource(1)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { v.listener.Close() })
	return v
}

func TestReceiveRule(t *testing.T) {
	rec := &recorder{}
	v := newTestVM(t, 1, nil, rec)
	for i := 0; i < 5; i++ {
		v.clock.Tick()
	}

	v.applyReceive(context.Background(), wire.Message{Sender: 2, Clock: 10, Type: wire.TypeSend})

	recs := rec.records()
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	r := recs[0]
	if r.Type != eventlog.EventReceive {
		t.Fatalf("type = %v, want RECEIVE", r.Type)
	}
	if r.Clock != 11 {
		t.Fatalf("clock = %d, want max(5,10)+1 = 11", r.Clock)
	}
	if r.Detail != "Received from VM 2. Queue length: 0" {
		t.Fatalf("detail = %q", r.Detail)
	}
}

func TestReceiveQueueLengthAfterDequeue(t *testing.T) {
	rec := &recorder{}
	v := newTestVM(t, 1, nil, rec)
	v.queue.Push(wire.Message{Sender: 2, Clock: 1, Type: wire.TypeSend})
	v.queue.Push(wire.Message{Sender: 3, Clock: 2, Type: wire.TypeSend})
	v.queue.Push(wire.Message{Sender: 2, Clock: 3, Type: wire.TypeSend})

	v.step(context.Background())

	recs := rec.records()
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].Detail != "Received from VM 2. Queue length: 2" {
		t.Fatalf("detail = %q", recs[0].Detail)
	}
	if n, ok := eventlog.QueueLength(recs[0].Detail); !ok || n != v.queue.Len() {
		t.Fatalf("logged queue length %d, actual %d", n, v.queue.Len())
	}
}

func TestInternalEventRule(t *testing.T) {
	rec := &recorder{}
	v := newTestVM(t, 1, nil, rec)
	for i := 0; i < 5; i++ {
		v.clock.Tick()
	}

	v.applyAction(context.Background(), ActionInternal)

	recs := rec.records()
	if len(recs) != 1 || recs[0].Type != eventlog.EventInternal {
		t.Fatalf("unexpected records: %+v", recs)
	}
	if recs[0].Clock != 6 {
		t.Fatalf("clock = %d, want 6", recs[0].Clock)
	}
	if recs[0].Detail != "Internal event occurred" {
		t.Fatalf("detail = %q", recs[0].Detail)
	}
}

func TestBroadcastTicksOncePerTarget(t *testing.T) {
	rec := &recorder{}
	peers := []config.NodeConfig{{ID: 2, Addr: "x"}, {ID: 3, Addr: "y"}, {ID: 4, Addr: "z"}}
	v := newTestVM(t, 1, peers, rec)

	v.applyAction(context.Background(), ActionBroadcast)

	recs := rec.records()
	if len(recs) != 3 {
		t.Fatalf("expected 3 SEND records, got %d", len(recs))
	}
	for i, r := range recs {
		if r.Type != eventlog.EventSend {
			t.Fatalf("record %d type = %v", i, r.Type)
		}
		if r.Clock != uint64(i+1) {
			t.Fatalf("record %d clock = %d, want %d", i, r.Clock, i+1)
		}
	}
	if recs[0].Detail != "Sent to VM 2" || recs[2].Detail != "Sent to VM 4" {
		t.Fatalf("unexpected details: %q, %q", recs[0].Detail, recs[2].Detail)
	}
	if v.ClockValue() != 3 {
		t.Fatalf("clock after broadcast = %d, want 3", v.ClockValue())
	}
}

func TestSendWithoutConnectionDrops(t *testing.T) {
	rec := &recorder{}
	v := newTestVM(t, 1, []config.NodeConfig{{ID: 2, Addr: "x"}}, rec)

	// Peer 2 never connected: no panic, no map entry, message dropped.
	v.send(context.Background(), 2, wire.Message{Sender: 1, Clock: 1, Type: wire.TypeSend})

	v.connMu.RLock()
	defer v.connMu.RUnlock()
	if len(v.conns) != 0 {
		t.Fatalf("conns = %v, want empty", v.conns)
	}
}

func TestSendSecondFallbackSinglePeer(t *testing.T) {
	rec := &recorder{}
	v := newTestVM(t, 1, []config.NodeConfig{{ID: 9, Addr: "x"}}, rec)

	v.applyAction(context.Background(), ActionSendSecond)

	recs := rec.records()
	if len(recs) != 1 || recs[0].Detail != "Sent to VM 9" {
		t.Fatalf("unexpected records: %+v", recs)
	}
}

func TestRunTwoVMsEndToEnd(t *testing.T) {
	recA := &recorder{}
	vmA, err := New(Config{
		ID:          1,
		Addr:        "127.0.0.1:0",
		Duration:    500 * time.Millisecond,
		TickRateMin: 20,
		TickRateMax: 20,
		Grace:       50 * time.Millisecond,
		RetryDelay:  50 * time.Millisecond,
		Records:     recA,
		Rand:        rand.New(rand.NewSource(7)),
	})
	if err != nil {
		t.Fatalf("New vmA: %v", err)
	}

	recB := &recorder{}
	vmB, err := New(Config{
		ID:          2,
		Addr:        "127.0.0.1:0",
		Peers:       []config.NodeConfig{{ID: 1, Addr: vmA.Addr()}},
		Duration:    500 * time.Millisecond,
		TickRateMin: 20,
		TickRateMax: 20,
		// Range 3 makes every draw a send, so vmA must receive.
		EventRange: 3,
		Grace:      50 * time.Millisecond,
		RetryDelay: 50 * time.Millisecond,
		Records:    recB,
		Rand:       rand.New(rand.NewSource(8)),
	})
	if err != nil {
		t.Fatalf("New vmB: %v", err)
	}

	ctx := context.Background()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); vmA.Run(ctx) }()
	go func() { defer wg.Done(); vmB.Run(ctx) }()
	wg.Wait()

	if vmA.State() != StateStopped || vmB.State() != StateStopped {
		t.Fatalf("states = %v, %v, want stopped", vmA.State(), vmB.State())
	}

	sends := 0
	for _, r := range recB.records() {
		if r.Type == eventlog.EventSend {
			sends++
		}
	}
	if sends == 0 {
		t.Fatal("vmB recorded no SEND events")
	}

	receives := 0
	var prev uint64
	for _, r := range recA.records() {
		if r.Clock <= prev {
			t.Fatalf("vmA clock not strictly increasing: %d after %d", r.Clock, prev)
		}
		prev = r.Clock
		if r.Type == eventlog.EventReceive {
			receives++
		}
	}
	if receives == 0 {
		t.Fatal("vmA recorded no RECEIVE events")
	}
}
