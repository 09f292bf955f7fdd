package collector

import (
	"testing"
	"time"
)

func TestComputePercentile(t *testing.T) {
	sorted := make([]time.Duration, 100)
	for i := range sorted {
		sorted[i] = time.Duration(i+1) * time.Millisecond
	}

	tests := []struct {
		p    float64
		want time.Duration
	}{
		{0, 1 * time.Millisecond},
		{0.50, 50 * time.Millisecond},
		{0.95, 95 * time.Millisecond},
		{0.99, 99 * time.Millisecond},
		{1, 100 * time.Millisecond},
	}

	for _, tt := range tests {
		if got := ComputePercentile(sorted, tt.p); got != tt.want {
			t.Errorf("ComputePercentile(p=%v) = %v, expected %v", tt.p, got, tt.want)
		}
	}
}

func TestComputePercentile_Empty(t *testing.T) {
	if got := ComputePercentile(nil, 0.95); got != 0 {
		t.Errorf("empty slice should yield 0, got %v", got)
	}
}

func TestComputePercentile_SingleElement(t *testing.T) {
	sorted := []time.Duration{42 * time.Millisecond}
	for _, p := range []float64{0, 0.5, 0.95, 1} {
		if got := ComputePercentile(sorted, p); got != 42*time.Millisecond {
			t.Errorf("p=%v: got %v", p, got)
		}
	}
}

func TestComputeLatencyStats(t *testing.T) {
	durations := []time.Duration{
		30 * time.Millisecond,
		10 * time.Millisecond,
		50 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
	}

	stats := ComputeLatencyStats(durations)

	if stats.Min != 10*time.Millisecond {
		t.Errorf("Min = %v", stats.Min)
	}
	if stats.Max != 50*time.Millisecond {
		t.Errorf("Max = %v", stats.Max)
	}
	if stats.Avg != 30*time.Millisecond {
		t.Errorf("Avg = %v", stats.Avg)
	}
	if stats.P50 != 30*time.Millisecond {
		t.Errorf("P50 = %v", stats.P50)
	}
}

func TestComputeLatencyStats_DoesNotMutateInput(t *testing.T) {
	durations := []time.Duration{3, 1, 2}
	ComputeLatencyStats(durations)
	if durations[0] != 3 || durations[1] != 1 || durations[2] != 2 {
		t.Errorf("input slice was reordered: %v", durations)
	}
}

func TestComputeLatencyStats_Empty(t *testing.T) {
	stats := ComputeLatencyStats(nil)
	if stats != (LatencyStats{}) {
		t.Errorf("empty input should yield zero stats, got %+v", stats)
	}
}
