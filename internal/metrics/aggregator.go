// internal/metrics/aggregator.go
package metrics

import (
	"sort"
	"sync"
	"time"
)

// Aggregator collects latency and error counts per operation and backend.
type Aggregator struct {
	mutex sync.Mutex
	ops   map[string]*OperationStats
	now   func() time.Time
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		ops: make(map[string]*OperationStats),
		now: time.Now,
	}
}

// Record adds one call. A nil Aggregator ignores the call.
func (a *Aggregator) Record(operation, backend string, elapsed time.Duration, err error) {
	if a == nil {
		return
	}
	a.mutex.Lock()
	defer a.mutex.Unlock()

	key := operation + "/" + backend
	stats, ok := a.ops[key]
	if !ok {
		stats = &OperationStats{Operation: operation, Backend: backend}
		a.ops[key] = stats
	}
	stats.TotalRequests++
	if err != nil {
		stats.Errors++
	}
	stats.LastUpdatedUTC = a.now().UTC()
	updateRunningStat(&stats.LatencyMillis, float64(elapsed)/float64(time.Millisecond))
}

// Snapshot returns a copy of every series ordered by operation then backend.
func (a *Aggregator) Snapshot() []OperationStats {
	if a == nil {
		return nil
	}
	a.mutex.Lock()
	out := make([]OperationStats, 0, len(a.ops))
	for _, s := range a.ops {
		stats := *s
		stats.LatencyMillis.StdDev = stats.LatencyMillis.SampleStdDev()
		out = append(out, stats)
	}
	a.mutex.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Operation != out[j].Operation {
			return out[i].Operation < out[j].Operation
		}
		return out[i].Backend < out[j].Backend
	})
	return out
}

// updateRunningStat updates a single running statistic using Welford's online algorithm.
func updateRunningStat(rs *RunningStat, value float64) {
	rs.Count++
	if rs.Count == 1 {
		rs.Min = value
		rs.Max = value
	} else {
		if value < rs.Min {
			rs.Min = value
		}
		if value > rs.Max {
			rs.Max = value
		}
	}

	delta := value - rs.Mean
	rs.Mean += delta / float64(rs.Count)
	delta2 := value - rs.Mean
	rs.M2 += delta * delta2
}
