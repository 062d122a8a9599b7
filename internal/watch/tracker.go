// Live tracking of a running trial through its log files
package watch

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"clocksim/internal/analysis"
	"clocksim/internal/eventlog"
)

// VMStatus is the latest observed state of one VM, reconstructed from
// its event log.
type VMStatus struct {
	VMID     int
	Trial    int
	Clock    uint64
	QueueLen int
	Events   int
	LastType eventlog.EventType
	Updated  time.Time
}

// Update pairs a refreshed status with the log line that produced it.
type Update struct {
	Status VMStatus
	Line   string
}

// Tracker incrementally reads the vm_*_trial*.log files in a directory.
// The VMs run as separate processes; their logs are the only window
// into them, so the tracker polls for appended lines.
type Tracker struct {
	dir string

	mu       sync.Mutex
	statuses map[int]*VMStatus
	offsets  map[string]int64
}

// NewTracker watches the given log directory.
func NewTracker(dir string) *Tracker {
	return &Tracker{
		dir:      dir,
		statuses: make(map[int]*VMStatus),
		offsets:  make(map[string]int64),
	}
}

// Poll reads newly appended complete lines from every log file and
// returns one Update per parsed record, in file order.
func (t *Tracker) Poll() []Update {
	t.mu.Lock()
	defer t.mu.Unlock()

	paths, err := filepath.Glob(filepath.Join(t.dir, "vm_*_trial*.log"))
	if err != nil {
		return nil
	}
	sort.Strings(paths)

	var updates []Update
	for _, path := range paths {
		vmID, trial, ok := analysis.ParseLogName(path)
		if !ok {
			continue
		}
		updates = append(updates, t.pollFile(path, vmID, trial)...)
	}
	return updates
}

func (t *Tracker) pollFile(path string, vmID, trial int) []Update {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	offset := t.offsets[path]
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil
	}

	var updates []Update
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			// Partial trailing line: leave it for the next poll.
			break
		}
		offset += int64(len(line))

		rec, perr := eventlog.ParseLine(line)
		if perr != nil {
			continue
		}
		st := t.statuses[vmID]
		if st == nil {
			st = &VMStatus{VMID: vmID, QueueLen: -1}
			t.statuses[vmID] = st
		}
		st.Trial = trial
		st.Clock = rec.Clock
		st.Events++
		st.LastType = rec.Type
		st.Updated = rec.Timestamp
		if n, ok := eventlog.QueueLength(rec.Detail); ok {
			st.QueueLen = n
		}
		updates = append(updates, Update{
			Status: *st,
			Line:   "VM " + strconv.Itoa(vmID) + ": " + eventlog.FormatLine(rec),
		})
	}
	t.offsets[path] = offset
	return updates
}

// Snapshot returns the current status of every tracked VM, ascending
// by id.
func (t *Tracker) Snapshot() []VMStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]VMStatus, 0, len(t.statuses))
	for _, st := range t.statuses {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VMID < out[j].VMID })
	return out
}
