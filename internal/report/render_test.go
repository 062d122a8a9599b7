package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clocksim/internal/analysis"
	"clocksim/internal/eventlog"
)

func sampleSeries(vm, trial int) analysis.Series {
	return analysis.Series{
		VMID:      vm,
		Trial:     trial,
		RelTimes:  []float64{0, 0.5, 1.0},
		Clocks:    []uint64{1, 2, 8},
		QueueLens: []int{-1, -1, 4},
		Counts: map[eventlog.EventType]int{
			eventlog.EventInternal: 1,
			eventlog.EventSend:     1,
			eventlog.EventReceive:  1,
		},
		AvgInterEvent: 0.5,
		MaxClock:      8,
		MaxJump:       6,
	}
}

func TestRenderWritesChartSet(t *testing.T) {
	dir := t.TempDir()
	series := []analysis.Series{sampleSeries(1, 1), sampleSeries(2, 1)}
	if err := Render(series, dir); err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, name := range []string{"logical_clock.svg", "queue_length.svg", "avg_inter_event.svg", "index.html"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
		if len(data) == 0 {
			t.Fatalf("%s is empty", name)
		}
	}
	svg, _ := os.ReadFile(filepath.Join(dir, "logical_clock.svg"))
	if !strings.Contains(string(svg), "polyline") {
		t.Fatal("clock chart has no polyline")
	}
	if !strings.Contains(string(svg), "Trial 1 - VM 2") {
		t.Fatal("clock chart legend missing series label")
	}
}

func TestRenderRejectsEmptyInput(t *testing.T) {
	if err := Render(nil, t.TempDir()); err == nil {
		t.Fatal("expected error for empty series")
	}
}

func TestQueueChartSkipsSeriesWithoutReceives(t *testing.T) {
	s := sampleSeries(1, 1)
	s.QueueLens = []int{-1, -1, -1}
	c := queueChart([]analysis.Series{s})
	if len(c.Series) != 0 {
		t.Fatalf("expected no queue series, got %d", len(c.Series))
	}
}
