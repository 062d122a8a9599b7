// Package vm implements the per-process actor: one logical clock, one
// inbound queue, a listener, outbound peer connections, and the
// simulation loop that ties them together.
package vm

import (
	"fmt"
	"io"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"clocksim/internal/config"
	"clocksim/internal/eventlog"
	"clocksim/internal/logical"
)

// State tracks the one-directional lifecycle of a VM.
type State int32

// Lifecycle states. Transitions are strictly forward.
const (
	StateStarting State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// Config carries everything a VM needs, fixed for its lifetime.
type Config struct {
	ID       int
	Addr     string
	Peers    []config.NodeConfig
	Duration time.Duration

	TickRateMin int
	TickRateMax int
	EventRange  int
	RetryDelay  time.Duration
	Grace       time.Duration

	// Records receives every observable event. If it also implements
	// io.Closer it is closed during shutdown.
	Records eventlog.Writer

	// Rand drives the tick rate draw and the event policy. Defaults to
	// a time-seeded source; tests inject a fixed seed.
	Rand *rand.Rand
}

// VM is one simulated machine.
type VM struct {
	id       int
	tickRate int
	interval time.Duration
	duration time.Duration

	clock logical.Clock
	queue inboundQueue

	peers   []config.NodeConfig
	peerIDs []int

	connMu sync.RWMutex
	conns  map[int]net.Conn

	listener   net.Listener
	acceptDone chan struct{}

	records eventlog.Writer
	policy  Policy
	rng     *rand.Rand

	retryDelay time.Duration
	grace      time.Duration

	state atomic.Int32
}

// New constructs a VM, draws its tick rate, and binds its listener.
// Failure to bind is the one fatal startup condition.
func New(cfg Config) (*VM, error) {
	if cfg.Records == nil {
		return nil, fmt.Errorf("vm %d: no event record writer", cfg.ID)
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	rateMin := cfg.TickRateMin
	if rateMin <= 0 {
		rateMin = config.DefaultTickRateMin
	}
	rateMax := cfg.TickRateMax
	if rateMax < rateMin {
		rateMax = config.DefaultTickRateMax
	}
	eventRange := cfg.EventRange
	if eventRange <= 0 {
		eventRange = config.DefaultEventRange
	}
	retry := cfg.RetryDelay
	if retry <= 0 {
		retry = config.DefaultRetrySeconds * time.Second
	}
	grace := cfg.Grace
	if grace <= 0 {
		grace = config.DefaultGraceSeconds * time.Second
	}

	tickRate := rateMin + rng.Intn(rateMax-rateMin+1)

	l, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("vm %d: listen on %s: %w", cfg.ID, cfg.Addr, err)
	}

	peerIDs := make([]int, len(cfg.Peers))
	for i, p := range cfg.Peers {
		peerIDs[i] = p.ID
	}

	return &VM{
		id:         cfg.ID,
		tickRate:   tickRate,
		interval:   time.Second / time.Duration(tickRate),
		duration:   cfg.Duration,
		peers:      cfg.Peers,
		peerIDs:    peerIDs,
		conns:      make(map[int]net.Conn),
		listener:   l,
		acceptDone: make(chan struct{}),
		records:    cfg.Records,
		policy:     Policy{Range: eventRange},
		rng:        rng,
		retryDelay: retry,
		grace:      grace,
	}, nil
}

// ID returns the VM's identity.
func (v *VM) ID() int { return v.id }

// TickRate returns the ticks/second drawn at construction.
func (v *VM) TickRate() int { return v.tickRate }

// Addr returns the bound listen address.
func (v *VM) Addr() string { return v.listener.Addr().String() }

// ClockValue returns the current logical clock value.
func (v *VM) ClockValue() uint64 { return v.clock.Value() }

// State returns the current lifecycle state.
func (v *VM) State() State { return State(v.state.Load()) }

func (v *VM) setState(s State) { v.state.Store(int32(s)) }

func (v *VM) closeRecords() error {
	if c, ok := v.records.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
