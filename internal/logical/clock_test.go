package logical

import "testing"

func TestTickZeroValue(t *testing.T) {
	var clk Clock
	if got := clk.Tick(); got != 1 {
		t.Fatalf("Tick() = %d, want 1", got)
	}
}

func TestTickIsStrictlyIncreasing(t *testing.T) {
	var clk Clock
	prev := clk.Value()
	for i := 0; i < 100; i++ {
		v := clk.Tick()
		if v != prev+1 {
			t.Fatalf("Tick() = %d after %d", v, prev)
		}
		prev = v
	}
}

func TestObserveRemoteAhead(t *testing.T) {
	var clk Clock
	for i := 0; i < 5; i++ {
		clk.Tick()
	}
	// C=5, M=10 => 11
	if got := clk.Observe(10); got != 11 {
		t.Fatalf("Observe(10) = %d, want 11", got)
	}
}

func TestObserveRemoteBehind(t *testing.T) {
	var clk Clock
	for i := 0; i < 7; i++ {
		clk.Tick()
	}
	if got := clk.Observe(3); got != 8 {
		t.Fatalf("Observe(3) = %d, want 8", got)
	}
}

func TestObserveRemoteEqual(t *testing.T) {
	var clk Clock
	clk.Tick()
	clk.Tick()
	if got := clk.Observe(2); got != 3 {
		t.Fatalf("Observe(2) = %d, want 3", got)
	}
}

func TestObserveZeroValue(t *testing.T) {
	var clk Clock
	if got := clk.Observe(0); got != 1 {
		t.Fatalf("Observe(0) = %d, want 1", got)
	}
}
