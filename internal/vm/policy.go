package vm

import "math/rand"

// Action is the outcome of one event draw when the inbound queue is
// empty.
type Action int

// The discrete outcomes of the event draw. With the default range of 20
// each send action has probability 1/20 and an internal event 17/20.
const (
	ActionInternal Action = iota
	ActionSendFirst
	ActionSendSecond
	ActionBroadcast
)

func (a Action) String() string {
	switch a {
	case ActionSendFirst:
		return "send-first"
	case ActionSendSecond:
		return "send-second"
	case ActionBroadcast:
		return "broadcast"
	default:
		return "internal"
	}
}

// Policy is the explicit probability table for the event draw: values
// 1..3 map to the send actions, everything up to Range is internal.
type Policy struct {
	Range int
}

// Pick maps a drawn value r in [1, Range] to an action.
func (p Policy) Pick(r int) Action {
	switch r {
	case 1:
		return ActionSendFirst
	case 2:
		return ActionSendSecond
	case 3:
		return ActionBroadcast
	default:
		return ActionInternal
	}
}

// Draw picks an action using rng.
func (p Policy) Draw(rng *rand.Rand) Action {
	return p.Pick(rng.Intn(p.Range) + 1)
}

// Targets resolves an action to send targets, given the peer ids in
// topology order. Send-second falls back to the first peer when only
// one peer exists.
func Targets(a Action, peers []int) []int {
	if len(peers) == 0 {
		return nil
	}
	switch a {
	case ActionSendFirst:
		return peers[:1]
	case ActionSendSecond:
		if len(peers) > 1 {
			return peers[1:2]
		}
		return peers[:1]
	case ActionBroadcast:
		return peers
	default:
		return nil
	}
}
