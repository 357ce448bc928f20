// internal/metrics/types.go
package metrics

import (
	"math"
	"time"
)

// OperationStats aggregates calls of one operation against one backend.
type OperationStats struct {
	Operation      string      `json:"operation"`
	Backend        string      `json:"backend"`
	TotalRequests  int64       `json:"total_requests"`
	Errors         int64       `json:"errors"`
	LatencyMillis  RunningStat `json:"latency_ms"`
	LastUpdatedUTC time.Time   `json:"last_updated_utc"`
}

// RunningStat holds the necessary values for online calculation of mean, variance, and stddev.
type RunningStat struct {
	Count  int64   `json:"-"`
	Mean   float64 `json:"mean"`
	M2     float64 `json:"-"` // Sum of squares of differences from the current mean
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stddev"` // filled from SampleStdDev by Snapshot
}

// SampleStdDev returns the sample standard deviation, or 0 with fewer than two values.
func (rs RunningStat) SampleStdDev() float64 {
	if rs.Count < 2 {
		return 0
	}
	return math.Sqrt(rs.M2 / float64(rs.Count-1))
}
