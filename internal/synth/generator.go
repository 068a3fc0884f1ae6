// Package synth simulates a multi-teller branch and emits its visit log in
// the raw extract shape, with the format drift and defects real extracts
// carry.
package synth

import (
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/okian/waitcast/internal/domain/model"
)

// Defect kinds.
const (
	caseBlankWait = iota
	caseInvalidQueue
	caseGarbageArrival
	caseStartBeforeArrival
	caseNegativeWait
	caseNaNWait
	defectKinds
)

// Timestamp encodings, rotated when MixedFormats is set.
const (
	fmtISO = iota
	fmtRFC3339
	fmtUS
	fmtEpochSeconds
	fmtEpochMillis
	fmtKinds
)

type visit struct {
	arrival time.Time
	start   time.Time
	finish  time.Time
	queue   int
}

// Generate simulates cfg.Rows visits and returns them as raw records plus
// a description of what was injected.
func Generate(cfg Config) ([]model.Record, Stats) {
	if cfg.Rows < 1 {
		cfg.Rows = DefaultRows
	}
	if cfg.Tellers < 1 {
		cfg.Tellers = DefaultTellers
	}
	if cfg.Start.IsZero() {
		cfg.Start = DefaultConfig().Start
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	visits := simulate(rng, cfg)
	stats := Stats{Visits: len(visits)}

	out := make([]model.Record, 0, len(visits)+len(visits)/50)
	days := map[string]bool{}
	for i, v := range visits {
		days[v.arrival.Format(time.DateOnly)] = true
		wait := v.start.Sub(v.arrival).Minutes()
		// Customers report rounded, sometimes optimistic waits.
		reported := math.Max(0, math.Round(wait+rng.NormFloat64()*0.5))

		layout := fmtISO
		if cfg.MixedFormats {
			layout = i % fmtKinds
		}
		rec := model.Record{
			ArrivalTime: encode(v.arrival, layout),
			StartTime:   encode(v.start, layout),
			FinishTime:  encode(v.finish, layout),
			WaitTime:    strconv.FormatFloat(reported, 'f', -1, 64),
			QueueLength: strconv.Itoa(v.queue),
		}

		if rng.Float64() < cfg.CorruptRate {
			corrupt(rng, &rec, v)
			stats.Corrupted++
		}
		out = append(out, rec)
		if rng.Float64() < cfg.DuplicateRate {
			out = append(out, rec)
			stats.Duplicates++
		}
	}
	for i := range out {
		out[i].Line = i + 2
	}
	stats.Rows = len(out)
	stats.Days = len(days)
	return out, stats
}

// simulate runs a FIFO queue with cfg.Tellers servers over business hours.
func simulate(rng *rand.Rand, cfg Config) []visit {
	free := make([]time.Time, cfg.Tellers)
	visits := make([]visit, 0, cfg.Rows)

	day := cfg.Start
	clock := day.Add(defaultOpenHour * time.Hour)
	for len(visits) < cfg.Rows {
		closeAt := day.Add(defaultCloseHour * time.Hour)
		if day.Weekday() == time.Sunday || !clock.Before(closeAt) {
			day = day.AddDate(0, 0, 1)
			clock = day.Add(defaultOpenHour * time.Hour)
			for i := range free {
				free[i] = clock
			}
			continue
		}

		rate := arrivalRate(clock)
		gap := rng.ExpFloat64() / rate
		// Logs carry whole seconds; keep arrivals distinct at that resolution.
		clock = clock.Add(max(time.Second, time.Duration(gap*float64(time.Minute)))).Truncate(time.Second)
		if !clock.Before(closeAt) {
			continue
		}

		teller := 0
		for i := range free {
			if free[i].Before(free[teller]) {
				teller = i
			}
		}
		start := clock
		if free[teller].After(start) {
			start = free[teller]
		}
		service := math.Max(0.5, rng.ExpFloat64()*defaultMeanService)
		finish := start.Add(time.Duration(service * float64(time.Minute))).Truncate(time.Second)
		free[teller] = finish

		queue := 0
		for j := len(visits) - 1; j >= 0 && j >= len(visits)-200; j-- {
			if visits[j].start.After(clock) {
				queue++
			}
		}
		visits = append(visits, visit{arrival: clock, start: start, finish: finish, queue: queue})
	}
	return visits
}

// arrivalRate is arrivals per minute: a lunchtime peak and busier Mondays
// and Saturdays.
func arrivalRate(t time.Time) float64 {
	hour := float64(t.Hour()) + float64(t.Minute())/60
	peak := math.Exp(-math.Pow(hour-12.5, 2) / 2)
	rate := defaultBaseArrivals * (0.6 + peak)
	switch t.Weekday() {
	case time.Monday, time.Saturday:
		rate *= 1.3
	}
	return rate
}

func encode(t time.Time, kind int) any {
	switch kind {
	case fmtRFC3339:
		return t.Format(time.RFC3339)
	case fmtUS:
		return t.Format("01/02/2006 15:04:05")
	case fmtEpochSeconds:
		return strconv.FormatInt(t.Unix(), 10)
	case fmtEpochMillis:
		return strconv.FormatInt(t.UnixMilli(), 10)
	default:
		return t.Format(time.DateTime)
	}
}

func corrupt(rng *rand.Rand, rec *model.Record, v visit) {
	switch rng.IntN(defectKinds) {
	case caseBlankWait:
		rec.WaitTime = ""
	case caseInvalidQueue:
		rec.QueueLength = "n/a"
	case caseGarbageArrival:
		rec.ArrivalTime = "not a time"
	case caseStartBeforeArrival:
		rec.StartTime = v.arrival.Add(-3 * time.Minute).Format(time.DateTime)
	case caseNegativeWait:
		rec.WaitTime = "-4"
	case caseNaNWait:
		rec.WaitTime = "NaN"
	}
}
