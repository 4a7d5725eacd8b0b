package metrics

import (
	"context"
	"time"
)

// Collector records completed sleep cycles.
type Collector interface {
	Record(ctx context.Context, record *CycleRecord) error
	Summary(ctx context.Context) (Summary, error)
	Close() error
}

// Repository defines the interface for cycle storage
type Repository interface {
	Record(record *CycleRecord) error
	Flush() error
	Summary(ctx context.Context) (Summary, error)
	Close() error
}

// CycleRecord is one completed sleep cycle.
type CycleRecord struct {
	RecordedAt  time.Time
	Iteration   int
	WakeupUS    int64
	BeforeUS    int64
	AfterUS     int64
	Cause       string
	NativeCause string
	Detail      string
}

// Summary aggregates the stored cycles.
type Summary struct {
	Cycles       int
	TimerWakes   int
	OtherWakes   int
	AvgSleptMs   float64
	FirstCycleAt time.Time
	LastCycleAt  time.Time
}
