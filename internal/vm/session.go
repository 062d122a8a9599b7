package vm

import (
	"context"
	"errors"
	"net"
	"time"

	"clocksim/internal/config"
	"clocksim/internal/logging"
	"clocksim/internal/wire"
)

// acceptLoop accepts inbound connections for the lifetime of the
// listener and hands each one to a reader goroutine.
func (v *VM) acceptLoop(ctx context.Context) {
	defer close(v.acceptDone)
	for {
		conn, err := v.listener.Accept()
		if err != nil {
			// Listener closed during shutdown.
			return
		}
		go v.readLoop(ctx, conn)
	}
}

// readLoop reads frames from one inbound connection and appends decoded
// messages to the inbound queue. A malformed frame is dropped without
// tearing the connection down.
func (v *VM) readLoop(ctx context.Context, conn net.Conn) {
	log := logging.FromContext(ctx)
	defer conn.Close()
	dec := wire.NewDecoder(conn)
	for {
		msg, err := dec.Next()
		if err != nil {
			if errors.Is(err, wire.ErrMalformed) {
				log.Warn("dropping malformed message", "err", err)
				continue
			}
			return
		}
		v.queue.Push(msg)
	}
}

// connectLoop dials one peer, retrying forever on a fixed delay. It
// installs the connection and exits on success; it never surfaces a
// fatal error. Cancelling ctx abandons the retry.
func (v *VM) connectLoop(ctx context.Context, peer config.NodeConfig) {
	log := logging.FromContext(ctx)
	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "tcp", peer.Addr)
		if err == nil {
			v.connMu.Lock()
			v.conns[peer.ID] = conn
			v.connMu.Unlock()
			log.Info("connected to peer", "peer", peer.ID, "addr", peer.Addr)
			return
		}
		if ctx.Err() != nil {
			return
		}
		log.Info("peer not reachable, retrying", "peer", peer.ID, "addr", peer.Addr, "delay", v.retryDelay)
		select {
		case <-time.After(v.retryDelay):
		case <-ctx.Done():
			return
		}
	}
}

// send transmits one message to a peer, at most once. A missing
// connection or a write failure drops the message; neither is fatal and
// neither triggers a reconnect.
func (v *VM) send(ctx context.Context, target int, msg wire.Message) {
	log := logging.FromContext(ctx)
	v.connMu.RLock()
	conn, ok := v.conns[target]
	v.connMu.RUnlock()
	if !ok {
		log.Info("no connection to peer, dropping message", "peer", target)
		return
	}
	if err := wire.NewEncoder(conn).Encode(msg); err != nil {
		log.Warn("send failed, dropping message", "peer", target, "err", err)
	}
}

// shutdown releases everything the VM owns: the event log first, then
// the listener (waiting for the accept loop to drain), then every
// established outbound connection.
func (v *VM) shutdown(ctx context.Context) {
	log := logging.FromContext(ctx)
	if err := v.closeRecords(); err != nil {
		log.Error("closing event log failed", "err", err)
	}
	if err := v.listener.Close(); err != nil {
		log.Warn("closing listener failed", "err", err)
	}
	<-v.acceptDone

	v.connMu.Lock()
	for id, conn := range v.conns {
		if err := conn.Close(); err != nil {
			log.Warn("closing peer connection failed", "peer", id, "err", err)
		}
	}
	v.conns = make(map[int]net.Conn)
	v.connMu.Unlock()
}
