package pipeline

import (
	"testing"
	"time"
)

func TestRunLatencySnapshot(t *testing.T) {
	l := NewRunLatency(time.Hour)
	for _, ms := range []int{500, 100, 300, 200, 400} {
		l.Observe(time.Duration(ms) * time.Millisecond)
	}

	snap := l.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
}

func TestRunLatencyPrunesOldSamples(t *testing.T) {
	l := NewRunLatency(10 * time.Millisecond)
	l.Observe(100 * time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	if snap := l.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	l.Observe(200 * time.Millisecond)
	snap := l.Snapshot()
	if snap.Count != 1 || snap.MinMs != 200 {
		t.Fatalf("expected one 200ms sample, got %+v", snap)
	}
}

func TestRunLatencyClampsNegative(t *testing.T) {
	l := NewRunLatency(time.Hour)
	l.Observe(-time.Second)
	if snap := l.Snapshot(); snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got %d", snap.MaxMs)
	}
}

func TestRunLatencyEmpty(t *testing.T) {
	if snap := NewRunLatency(0).Snapshot(); snap != (LatencySnapshot{}) {
		t.Fatalf("expected zero snapshot, got %+v", snap)
	}
}
