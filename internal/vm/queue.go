package vm

import (
	"sync"

	"clocksim/internal/wire"
)

// inboundQueue is the unbounded FIFO between the accept path and the
// simulation loop. Connection handler goroutines push; only the
// simulation loop pops.
type inboundQueue struct {
	mu    sync.Mutex
	items []wire.Message
}

func (q *inboundQueue) Push(m wire.Message) {
	q.mu.Lock()
	q.items = append(q.items, m)
	q.mu.Unlock()
}

// Pop removes and returns the oldest message, if any.
func (q *inboundQueue) Pop() (wire.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return wire.Message{}, false
	}
	m := q.items[0]
	q.items = q.items[1:]
	return m, true
}

func (q *inboundQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
