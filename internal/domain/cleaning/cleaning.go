// Package cleaning turns raw records into ordered, repaired, imputed and
// clipped records.
//
// Cleaning runs in two phases so statistics never see held-out rows:
// Parse normalizes and repairs row by row, Fit learns medians and percentile
// bands from a (training) prefix, and Apply imputes and clips any partition
// with those fitted values without refitting.
package cleaning

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/waitcast/internal/domain/dedupe"
	"github.com/okian/waitcast/internal/domain/model"
	"github.com/okian/waitcast/internal/domain/numeric"
	"github.com/okian/waitcast/internal/domain/timestamp"
)

// Default cleaning configuration constants.
const (
	defaultLowerPercentile = 1
	defaultUpperPercentile = 99
	defaultMinRows         = 2
)

// Parsed is a record after normalization and order repair, before any
// statistic is applied. Nil numeric pointers mark values to impute.
type Parsed struct {
	Line    int
	Arrival time.Time
	Start   time.Time
	Finish  time.Time

	WaitTime    *float64
	QueueLength *float64

	ComputedService float64 // minutes
	WaitDerived     bool
	Repaired        bool
}

// Bounds is a closed clipping interval.
type Bounds struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Clip bounds v to the interval.
func (b Bounds) Clip(v float64) float64 {
	return numeric.Clamp(v, b.Lower, b.Upper)
}

// ColumnStats are the fitted imputation and clipping values of one column.
type ColumnStats struct {
	Median float64 `json:"median"`
	Bounds
}

// Stats holds everything Apply needs. Fit it on training rows only.
type Stats struct {
	Rows            int         `json:"rows"`
	WaitTime        ColumnStats `json:"wait_time"`
	QueueLength     ColumnStats `json:"queue_length"`
	ComputedService ColumnStats `json:"computed_service"`

	// ArrivalGap is the median seconds between consecutive arrivals, zero
	// for a single row.
	ArrivalGap float64 `json:"arrival_gap_seconds"`
}

// Cleaner implements the record cleaning stage.
type Cleaner struct {
	normalizer  *timestamp.Normalizer
	lower       float64
	upper       float64
	minRows     int
	orderPolicy OrderPolicy
}

// New creates a Cleaner with configuration options.
func New(opts ...Option) *Cleaner {
	c := &Cleaner{
		normalizer:  timestamp.New(),
		lower:       defaultLowerPercentile,
		upper:       defaultUpperPercentile,
		minRows:     defaultMinRows,
		orderPolicy: OrderRepair,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clean runs Parse, fits statistics on every surviving row, then Apply.
// Use it only when no train/test split follows.
func (c *Cleaner) Clean(records []model.Record) ([]model.CleanedRecord, Summary, error) {
	parsed, summary, err := c.Parse(records)
	if err != nil {
		return nil, summary, err
	}
	stats, err := c.Fit(parsed)
	if err != nil {
		return nil, summary, err
	}
	cleaned, applied := c.Apply(stats, parsed)
	return cleaned, summary.Merge(applied), nil
}

// Parse normalizes timestamps, drops unparsable and duplicate rows, derives
// missing wait times, repairs order and returns rows sorted by arrival.
// Fewer than the minimum surviving rows is an *InsufficientDataError.
func (c *Cleaner) Parse(records []model.Record) ([]Parsed, Summary, error) {
	summary := newSummary()
	summary.InputRows = len(records)

	seen := dedupe.NewInMemoryDeduper()
	out := make([]Parsed, 0, len(records))

	for i := range records {
		rec := &records[i]

		arrival, err := c.normalizer.Normalize(rec.ArrivalTime)
		if err != nil {
			summary.Dropped[ReasonUnparsableArrival]++
			continue
		}
		start, err := c.normalizer.Normalize(rec.StartTime)
		if err != nil {
			summary.Dropped[ReasonUnparsableStart]++
			continue
		}
		finish, err := c.normalizer.Normalize(rec.FinishTime)
		if err != nil {
			summary.Dropped[ReasonUnparsableFinish]++
			continue
		}

		if seen.SeenAndRecord(dedupe.KeyOf(arrival, start, finish)) {
			summary.Dropped[ReasonDuplicate]++
			continue
		}

		p := Parsed{Line: rec.Line, Arrival: arrival, Start: start, Finish: finish}

		var invalid bool
		if p.WaitTime, invalid = parseAmount(rec.WaitTime); invalid {
			summary.Invalid[model.ColWaitTime]++
		}
		if p.QueueLength, invalid = parseAmount(rec.QueueLength); invalid {
			summary.Invalid[model.ColQueueLength]++
		}

		// Derive from the raw instants: a negative gap is not a wait.
		if p.WaitTime == nil {
			if gap := start.Sub(arrival); gap >= 0 {
				w := gap.Minutes()
				p.WaitTime = &w
				p.WaitDerived = true
				summary.WaitDerived++
			}
		}

		if start.Before(arrival) || finish.Before(start) {
			if c.orderPolicy == OrderDrop {
				summary.Dropped[ReasonOrderViolation]++
				continue
			}
			if p.Start.Before(p.Arrival) {
				p.Start = p.Arrival
			}
			if p.Finish.Before(p.Start) {
				p.Finish = p.Start
			}
			p.Repaired = true
			summary.Repaired++
		}

		p.ComputedService = p.Finish.Sub(p.Start).Minutes()
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Arrival.Before(out[j].Arrival) })
	summary.OutputRows = len(out)

	if len(out) < c.minRows {
		return nil, summary, &InsufficientDataError{Rows: len(out), MinRows: c.minRows}
	}
	return out, summary, nil
}

// Fit computes per-column medians of observed values and percentile bands.
// Rows must be sorted by arrival, as Parse returns them.
func (c *Cleaner) Fit(parsed []Parsed) (Stats, error) {
	if len(parsed) == 0 {
		return Stats{}, &InsufficientDataError{Rows: 0, MinRows: 1}
	}

	waits := make([]float64, 0, len(parsed))
	queues := make([]float64, 0, len(parsed))
	services := make([]float64, 0, len(parsed))
	gaps := make([]float64, 0, len(parsed))
	for i := range parsed {
		if i > 0 {
			gaps = append(gaps, parsed[i].Arrival.Sub(parsed[i-1].Arrival).Seconds())
		}
		if w := parsed[i].WaitTime; w != nil {
			waits = append(waits, *w)
		}
		if q := parsed[i].QueueLength; q != nil {
			queues = append(queues, *q)
		}
		services = append(services, parsed[i].ComputedService)
	}

	stats := Stats{Rows: len(parsed)}
	if len(gaps) > 0 {
		stats.ArrivalGap = numeric.Median(gaps)
	}
	var err error
	if stats.WaitTime, err = c.fitColumn(model.ColWaitTime, waits, len(parsed)); err != nil {
		return Stats{}, err
	}
	if stats.QueueLength, err = c.fitColumn(model.ColQueueLength, queues, len(parsed)); err != nil {
		return Stats{}, err
	}
	if stats.ComputedService, err = c.fitColumn(model.ColComputedService, services, len(parsed)); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (c *Cleaner) fitColumn(name string, values []float64, rows int) (ColumnStats, error) {
	if len(values) == 0 {
		return ColumnStats{}, &InsufficientDataError{Rows: rows, MinRows: 1, Column: name}
	}
	return ColumnStats{
		Median: numeric.Median(values),
		Bounds: Bounds{
			Lower: numeric.Percentile(values, c.lower),
			Upper: numeric.Percentile(values, c.upper),
		},
	}, nil
}

// Apply imputes missing values with the fitted medians and clips every column
// to its fitted band. It never refits.
func (c *Cleaner) Apply(stats Stats, parsed []Parsed) ([]model.CleanedRecord, Summary) {
	summary := newSummary()
	summary.OutputRows = len(parsed)

	out := make([]model.CleanedRecord, len(parsed))
	for i := range parsed {
		p := &parsed[i]
		rec := model.CleanedRecord{
			Line:        p.Line,
			Arrival:     p.Arrival,
			Start:       p.Start,
			Finish:      p.Finish,
			WaitDerived: p.WaitDerived,
		}

		wait := stats.WaitTime.Median
		if p.WaitTime != nil {
			wait = *p.WaitTime
		} else {
			rec.WaitImputed = true
			summary.Imputed[model.ColWaitTime]++
		}
		queue := stats.QueueLength.Median
		if p.QueueLength != nil {
			queue = *p.QueueLength
		} else {
			rec.QueueImputed = true
			summary.Imputed[model.ColQueueLength]++
		}

		rec.WaitTime = clipCounted(wait, stats.WaitTime.Bounds, model.ColWaitTime, summary.Clipped)
		rec.QueueLength = clipCounted(queue, stats.QueueLength.Bounds, model.ColQueueLength, summary.Clipped)
		rec.ComputedService = clipCounted(p.ComputedService, stats.ComputedService.Bounds, model.ColComputedService, summary.Clipped)
		out[i] = rec
	}
	return out, summary
}

// Clip returns a copy of values bounded to b. Clipping is idempotent.
func Clip(values []float64, b Bounds) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = b.Clip(v)
	}
	return out
}

func clipCounted(v float64, b Bounds, column string, counts map[string]int) float64 {
	clipped := b.Clip(v)
	if clipped != v {
		counts[column]++
	}
	return clipped
}

// parseAmount reads a non-negative finite number. Blank input is missing;
// anything else unusable is missing and reported invalid.
func parseAmount(raw string) (*float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil, true
	}
	return &v, false
}
