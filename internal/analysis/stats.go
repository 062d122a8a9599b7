package analysis

import (
	"sort"

	"clocksim/internal/eventlog"
)

// TrialStats aggregates the per-VM series of one trial. ClockSpread is
// the gap between the fastest and slowest VM's final clock value, the
// headline drift number of a trial.
type TrialStats struct {
	Trial       int
	VMs         int
	Events      int
	Counts      map[eventlog.EventType]int
	MaxClock    uint64
	MinMaxClock uint64
	ClockSpread uint64
	MaxJump     uint64
	MaxQueueLen int
}

// Aggregate groups series by trial and reduces each group, ordered by
// trial number.
func Aggregate(series []Series) []TrialStats {
	byTrial := make(map[int]*TrialStats)
	for _, s := range series {
		st := byTrial[s.Trial]
		if st == nil {
			st = &TrialStats{
				Trial:       s.Trial,
				Counts:      make(map[eventlog.EventType]int),
				MinMaxClock: s.MaxClock,
			}
			byTrial[s.Trial] = st
		}
		st.VMs++
		st.Events += s.Events()
		for typ, n := range s.Counts {
			st.Counts[typ] += n
		}
		if s.MaxClock > st.MaxClock {
			st.MaxClock = s.MaxClock
		}
		if s.MaxClock < st.MinMaxClock {
			st.MinMaxClock = s.MaxClock
		}
		if s.MaxJump > st.MaxJump {
			st.MaxJump = s.MaxJump
		}
		for _, q := range s.QueueLens {
			if q > st.MaxQueueLen {
				st.MaxQueueLen = q
			}
		}
	}

	out := make([]TrialStats, 0, len(byTrial))
	for _, st := range byTrial {
		st.ClockSpread = st.MaxClock - st.MinMaxClock
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Trial < out[j].Trial })
	return out
}
