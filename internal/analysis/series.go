// Offline parsing of VM event logs into plottable series
package analysis

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"clocksim/internal/eventlog"
)

var logNameRe = regexp.MustCompile(`^vm_(\d+)_trial(\d+)\.log$`)

// ParseLogName extracts the VM id and trial number from a log file name.
func ParseLogName(name string) (vmID, trial int, ok bool) {
	m := logNameRe.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return 0, 0, false
	}
	vmID, _ = strconv.Atoi(m[1])
	trial, _ = strconv.Atoi(m[2])
	return vmID, trial, true
}

// Series is one VM's log reduced to plottable columns. RelTimes,
// Clocks, and QueueLens are parallel; QueueLens is -1 where the record
// carried no queue length (anything but RECEIVE).
type Series struct {
	VMID  int
	Trial int

	RelTimes  []float64
	Clocks    []uint64
	QueueLens []int

	Counts        map[eventlog.EventType]int
	AvgInterEvent float64
	MaxClock      uint64
	MaxJump       uint64
}

// Events returns the total number of parsed records.
func (s *Series) Events() int {
	return len(s.RelTimes)
}

// ParseReader reduces one log stream to a Series. Malformed lines are
// skipped so a truncated tail does not void a trial.
func ParseReader(r io.Reader) (Series, error) {
	s := Series{Counts: make(map[eventlog.EventType]int)}
	var firstTS float64
	var prevTS float64
	var prevClock uint64
	var gapSum float64
	gaps := 0

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		rec, err := eventlog.ParseLine(scanner.Text())
		if err != nil {
			continue
		}
		ts := float64(rec.Timestamp.UnixMilli()) / 1000
		if s.Events() == 0 {
			firstTS = ts
		} else {
			gapSum += ts - prevTS
			gaps++
			if rec.Clock > prevClock && rec.Clock-prevClock > s.MaxJump {
				s.MaxJump = rec.Clock - prevClock
			}
		}
		prevTS = ts
		prevClock = rec.Clock

		s.RelTimes = append(s.RelTimes, ts-firstTS)
		s.Clocks = append(s.Clocks, rec.Clock)
		qlen := -1
		if n, ok := eventlog.QueueLength(rec.Detail); ok {
			qlen = n
		}
		s.QueueLens = append(s.QueueLens, qlen)
		s.Counts[rec.Type]++
		if rec.Clock > s.MaxClock {
			s.MaxClock = rec.Clock
		}
	}
	if err := scanner.Err(); err != nil {
		return Series{}, fmt.Errorf("scan log: %w", err)
	}
	if gaps > 0 {
		s.AvgInterEvent = gapSum / float64(gaps)
	}
	return s, nil
}

// ParseFile parses one vm_<id>_trial<n>.log file.
func ParseFile(path string) (Series, error) {
	vmID, trial, ok := ParseLogName(path)
	if !ok {
		return Series{}, fmt.Errorf("not a vm log file name: %s", filepath.Base(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return Series{}, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()
	s, err := ParseReader(f)
	if err != nil {
		return Series{}, err
	}
	s.VMID = vmID
	s.Trial = trial
	return s, nil
}

// LoadDir parses every VM log in a directory, ordered by trial then VM.
func LoadDir(dir string) ([]Series, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "vm_*_trial*.log"))
	if err != nil {
		return nil, err
	}
	var out []Series
	for _, path := range matches {
		s, err := ParseFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Trial != out[j].Trial {
			return out[i].Trial < out[j].Trial
		}
		return out[i].VMID < out[j].VMID
	})
	return out, nil
}
