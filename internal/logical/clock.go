// Lamport logical clocks
package logical

// A Clock is a monotonic Lamport counter.
//
// The zero value is a clock at 0, ready to use. A Clock has a single
// owner (the VM's simulation loop) and is not safe for concurrent
// mutation.
type Clock struct {
	counter uint64
}

// Value returns the current counter value.
func (c *Clock) Value() uint64 {
	return c.counter
}

// Tick increments the clock by 1 and returns the new value. Every
// locally generated event (send or internal) ticks exactly once.
func (c *Clock) Tick() uint64 {
	c.counter++
	return c.counter
}

// Observe applies the receive rule for a message carrying the remote
// value: the clock becomes max(local, remote) + 1. It returns the new
// value.
func (c *Clock) Observe(remote uint64) uint64 {
	if remote > c.counter {
		c.counter = remote
	}
	c.counter++
	return c.counter
}
