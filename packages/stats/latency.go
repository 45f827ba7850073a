package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Latency collects request durations for a run.
type Latency struct {
	mu sync.Mutex

	// Latency histogram (in microseconds for precision)
	histogram *hdrhistogram.Histogram

	// Per-request histograms, keyed by request name
	requests map[string]*requestLatency
	order    []string

	total  int64
	errors int64
}

type requestLatency struct {
	histogram *hdrhistogram.Histogram
	attempts  int64
	errors    int64
}

func NewLatency() *Latency {
	return &Latency{
		// Histogram: 1us to 60s range, 3 significant digits
		histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, 3),
		requests:  make(map[string]*requestLatency),
	}
}

// Record adds one attempt. failed marks attempts that did not pass.
func (l *Latency) Record(name string, duration time.Duration, failed bool) {
	latencyUs := clamp(duration.Microseconds())

	l.mu.Lock()
	defer l.mu.Unlock()

	l.total++
	if failed {
		l.errors++
	}
	_ = l.histogram.RecordValue(latencyUs)

	if name == "" {
		return
	}
	rl, ok := l.requests[name]
	if !ok {
		rl = &requestLatency{histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, 3)}
		l.requests[name] = rl
		l.order = append(l.order, name)
	}
	rl.attempts++
	if failed {
		rl.errors++
	}
	_ = rl.histogram.RecordValue(latencyUs)
}

func clamp(us int64) int64 {
	if us < minLatencyUs {
		return minLatencyUs
	}
	if us > maxLatencyUs {
		return maxLatencyUs
	}
	return us
}

// Summary is a point-in-time view of the recorded latencies.
type Summary struct {
	Attempts int64
	Errors   int64

	P50  time.Duration
	P95  time.Duration
	P99  time.Duration
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration

	// Per-request breakdown in first-seen order
	Requests []RequestSummary
}

type RequestSummary struct {
	Name     string
	Attempts int64
	Errors   int64
	P50      time.Duration
	P95      time.Duration
	Mean     time.Duration
}

func (l *Latency) Summary() *Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := &Summary{
		Attempts: l.total,
		Errors:   l.errors,
	}
	if l.total == 0 {
		return s
	}

	s.P50 = micros(l.histogram.ValueAtQuantile(50))
	s.P95 = micros(l.histogram.ValueAtQuantile(95))
	s.P99 = micros(l.histogram.ValueAtQuantile(99))
	s.Min = micros(l.histogram.Min())
	s.Max = micros(l.histogram.Max())
	s.Mean = time.Duration(l.histogram.Mean()) * time.Microsecond

	for _, name := range l.order {
		rl := l.requests[name]
		s.Requests = append(s.Requests, RequestSummary{
			Name:     name,
			Attempts: rl.attempts,
			Errors:   rl.errors,
			P50:      micros(rl.histogram.ValueAtQuantile(50)),
			P95:      micros(rl.histogram.ValueAtQuantile(95)),
			Mean:     time.Duration(rl.histogram.Mean()) * time.Microsecond,
		})
	}
	return s
}

// Slowest returns up to n per-request summaries ordered by mean latency.
func (s *Summary) Slowest(n int) []RequestSummary {
	sorted := make([]RequestSummary, len(s.Requests))
	copy(sorted, s.Requests)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Mean > sorted[j].Mean
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

func micros(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}
