package pipeline

import (
	"sort"
	"sync"
	"time"
)

type runSample struct {
	at         time.Time
	durationMs int64
}

// LatencySnapshot aggregates recent analysis run durations.
type LatencySnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
}

// RunLatency keeps analysis durations inside a rolling window.
type RunLatency struct {
	mu      sync.Mutex
	samples []runSample
	window  time.Duration
}

func NewRunLatency(window time.Duration) *RunLatency {
	if window <= 0 {
		window = time.Hour
	}
	return &RunLatency{window: window}
}

// Observe records one run. Negative durations count as zero.
func (l *RunLatency) Observe(d time.Duration) {
	ms := max(d.Milliseconds(), 0)
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(now)
	l.samples = append(l.samples, runSample{at: now, durationMs: ms})
}

func (l *RunLatency) Snapshot() LatencySnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(time.Now())
	if len(l.samples) == 0 {
		return LatencySnapshot{}
	}

	values := make([]int64, len(l.samples))
	var sum int64
	for i, s := range l.samples {
		values[i] = s.durationMs
		sum += s.durationMs
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return LatencySnapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
	}
}

func (l *RunLatency) pruneLocked(now time.Time) {
	cutoff := now.Add(-l.window)
	kept := l.samples[:0]
	for _, s := range l.samples {
		if !s.at.Before(cutoff) {
			kept = append(kept, s)
		}
	}
	l.samples = kept
}

// percentile interpolates linearly between ranks of sorted values.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}

	pos := float64(len(sorted)-1) * pct / 100
	lo := int(pos)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := pos - float64(lo)
	return float64(sorted[lo]) + float64(sorted[lo+1]-sorted[lo])*frac
}
