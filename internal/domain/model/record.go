// Package model contains domain models passed between pipeline stages.
package model

import "time"

// Raw input column names.
const (
	ColArrivalTime = "arrival_time"
	ColStartTime   = "start_time"
	ColFinishTime  = "finish_time"
	ColWaitTime    = "wait_time"
	ColQueueLength = "queue_length"

	// ColComputedService is derived from finish - start.
	ColComputedService = "computed_service"
)

// InputColumns lists the columns every extract must carry.
var InputColumns = []string{ //nolint:gochecknoglobals // fixed schema
	ColArrivalTime,
	ColStartTime,
	ColFinishTime,
	ColWaitTime,
	ColQueueLength,
}

// Record is one raw row of the historical extract.
// Timestamps hold a string in any supported layout or an epoch number.
type Record struct {
	Line        int // 1-based source line, for diagnostics
	ArrivalTime any
	StartTime   any
	FinishTime  any
	WaitTime    string // self-reported minutes, may be blank or invalid
	QueueLength string // may be blank or invalid
}

// CleanedRecord is a record after normalization, repair, imputation and clipping.
// Arrival <= Start <= Finish holds and every numeric field is finite and non-negative.
type CleanedRecord struct {
	Line    int
	Arrival time.Time
	Start   time.Time
	Finish  time.Time

	WaitTime        float64 // minutes
	QueueLength     float64
	ComputedService float64 // minutes

	WaitImputed  bool
	QueueImputed bool
	WaitDerived  bool // wait_time was recomputed from start - arrival
}
