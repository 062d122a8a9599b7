package vm

import (
	"context"
	"time"

	"clocksim/internal/eventlog"
	"clocksim/internal/logging"
	"clocksim/internal/wire"
)

// Run drives the VM through its lifecycle: start the accept loop and
// the per-peer connect tasks, wait out the startup grace period, run
// the simulation loop until the duration bound, then tear down.
func (v *VM) Run(ctx context.Context) error {
	log := logging.FromContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	v.setState(StateStarting)
	log.Info("starting", "tick_rate", v.tickRate, "addr", v.Addr(), "peers", len(v.peers))

	go v.acceptLoop(ctx)
	for _, peer := range v.peers {
		go v.connectLoop(ctx, peer)
	}

	// Give the rest of the cluster time to bind its listeners. The loop
	// starts after the grace period regardless of how many connections
	// are up; unestablished peers keep retrying in the background.
	select {
	case <-time.After(v.grace):
	case <-ctx.Done():
	}

	v.setState(StateRunning)
	v.simulationLoop(ctx)

	v.setState(StateStopping)
	log.Info("stopping")
	cancel()
	v.shutdown(ctx)
	v.setState(StateStopped)
	return nil
}

// simulationLoop performs one unit of work per tick and sleeps out the
// remainder of the interval. Overruns are not compensated; drift is the
// phenomenon under study. Termination only happens at a tick boundary.
func (v *VM) simulationLoop(ctx context.Context) {
	start := time.Now()
	for time.Since(start) < v.duration {
		if ctx.Err() != nil {
			return
		}
		tickStart := time.Now()
		v.step(ctx)
		if rest := v.interval - time.Since(tickStart); rest > 0 {
			select {
			case <-time.After(rest):
			case <-ctx.Done():
				return
			}
		}
	}
}

// step executes one unit of work: consume one queued message if any,
// otherwise draw an action from the policy table.
func (v *VM) step(ctx context.Context) {
	if msg, ok := v.queue.Pop(); ok {
		v.applyReceive(ctx, msg)
		return
	}
	v.applyAction(ctx, v.policy.Draw(v.rng))
}

// applyReceive applies the receive rule and records the post-dequeue
// queue length.
func (v *VM) applyReceive(ctx context.Context, msg wire.Message) {
	clock := v.clock.Observe(msg.Clock)
	v.record(ctx, eventlog.EventReceive, clock, eventlog.ReceiveDetail(msg.Sender, v.queue.Len()))
}

// applyAction performs the drawn action. Each send target ticks the
// clock once before its message is built, so a broadcast carries a
// distinct clock value per target.
func (v *VM) applyAction(ctx context.Context, action Action) {
	targets := Targets(action, v.peerIDs)
	if len(targets) == 0 {
		v.record(ctx, eventlog.EventInternal, v.clock.Tick(), eventlog.InternalDetail())
		return
	}
	for _, target := range targets {
		clock := v.clock.Tick()
		v.send(ctx, target, wire.Message{Sender: v.id, Clock: clock, Type: wire.TypeSend})
		v.record(ctx, eventlog.EventSend, clock, eventlog.SendDetail(target))
	}
}

func (v *VM) record(ctx context.Context, typ eventlog.EventType, clock uint64, detail string) {
	rec := eventlog.Record{Timestamp: time.Now(), Type: typ, Clock: clock, Detail: detail}
	if err := v.records.Write(rec); err != nil {
		logging.FromContext(ctx).Error("event log write failed", "err", err)
	}
}
