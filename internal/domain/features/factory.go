// Package features derives the engineered columns of the model matrix from
// cleaned records ordered by arrival.
//
// The factory walks rows in arrival order and keeps a knowledge timeline:
// at row i it only uses what is observable at arrival_i. Queue lengths of
// rows up to i are known on arrival; an earlier wait time becomes known once
// that customer's service starts (start_j <= arrival_i) and an earlier
// service time once it finishes (finish_j <= arrival_i). A row's own wait and
// service never feed its features.
//
// Where a row has no history yet it takes a fill: the median of the values
// already known, or a constant fitted on training rows before anything is
// known. Features at row i therefore depend only on rows up to i.
package features

import (
	"math"
	"time"

	"github.com/okian/waitcast/internal/domain/model"
)

// Default feature configuration constants.
const (
	defaultWindow        = 5
	defaultArrivalWindow = 5 * time.Minute
	defaultTrafficWindow = 60 * time.Minute
	defaultAlpha         = 0.3
	defaultOpen          = 9 * time.Hour

	minutesPerDay = 24 * 60
	hoursPerDay   = 24
)

// Columns is the model matrix schema, in order.
var Columns = model.FeatureColumns //nolint:gochecknoglobals // alias of the fixed schema

// CategoricalColumns are the one-hot encoded columns of Columns.
var CategoricalColumns = model.CategoricalColumns //nolint:gochecknoglobals // alias of the fixed schema

// Fills are the values reported for a column before any of its history is
// known. Fit them on training rows only, e.g. from the cleaner's medians.
type Fills struct {
	Queue   float64 `json:"queue"`
	Wait    float64 `json:"wait"`
	Service float64 `json:"service"`
	Gap     float64 `json:"gap_seconds"`
}

// Factory computes FeatureRows. It is stateless between calls.
type Factory struct {
	fills         Fills
	window        int
	arrivalWindow time.Duration
	trafficWindow time.Duration
	alpha         float64
	open          time.Duration
	loc           *time.Location
}

// New creates a Factory with configuration options.
func New(opts ...Option) *Factory {
	f := &Factory{
		window:        defaultWindow,
		arrivalWindow: defaultArrivalWindow,
		trafficWindow: defaultTrafficWindow,
		alpha:         defaultAlpha,
		open:          defaultOpen,
		loc:           time.UTC,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Transform returns one FeatureRow per record. The input must be sorted by
// arrival; it is not modified.
func (f *Factory) Transform(cleaned []model.CleanedRecord) ([]model.FeatureRow, error) {
	n := len(cleaned)
	for i := 1; i < n; i++ {
		if cleaned[i].Arrival.Before(cleaned[i-1].Arrival) {
			return nil, ErrNotSorted
		}
	}
	if n == 0 {
		return []model.FeatureRow{}, nil
	}

	queue := newSeries(f.window, f.alpha, f.fills.Queue)
	gaps := newSeries(f.window, f.alpha, f.fills.Gap)
	waits := newTimeline(newSeries(f.window, f.alpha, f.fills.Wait))
	services := newTimeline(newSeries(f.window, f.alpha, f.fills.Service))

	out := make([]model.FeatureRow, n)
	arrivalLo, trafficLo := 0, 0

	for i := range cleaned {
		rec := cleaned[i]
		t := rec.Arrival

		waits.advance(t)
		services.advance(t)

		row := model.FeatureRow{Index: i, CleanedRecord: rec}
		f.calendar(&row, t)

		// Queue state: values up to and including this row are known.
		row.QueueLag1 = queue.lag(1)
		row.QueueLag2 = queue.lag(2)
		queue.observe(rec.QueueLength)
		row.RollingQueueMean = queue.rolling()
		row.QueueEWMA = queue.smoothed()

		for cleaned[trafficLo].Arrival.Add(f.trafficWindow).Compare(t) <= 0 {
			trafficLo++
		}
		for cleaned[arrivalLo].Arrival.Add(f.arrivalWindow).Compare(t) <= 0 {
			arrivalLo++
		}
		row.TrafficIntensity = float64(i-trafficLo+1) / f.trafficWindow.Minutes()
		row.ArrivalsPer5Min = i - arrivalLo + 1
		row.CumulativeInSystem = services.outstanding()
		row.CumulativeCustomers = i + 1

		if i == 0 {
			row.ArrivalGapSeconds = f.fills.Gap
		} else {
			row.ArrivalGapSeconds = t.Sub(cleaned[i-1].Arrival).Seconds()
			gaps.observe(row.ArrivalGapSeconds)
		}
		row.RollingArrivalGapMean = gaps.rolling()

		row.WaitLag1 = waits.series.lag(1)
		row.WaitLag2 = waits.series.lag(2)
		row.WaitEWMA = waits.series.smoothed()

		row.ServiceLag1 = services.series.lag(1)
		row.ServiceLag2 = services.series.lag(2)
		row.ServiceEWMA = services.series.smoothed()
		row.RollingServiceMean = services.series.rolling()
		// Queue length over a service rate of 1/mean customers per minute.
		row.ServiceLoadRatio = rec.QueueLength * row.RollingServiceMean

		out[i] = row

		waits.schedule(rec.Start, i, rec.WaitTime)
		services.schedule(rec.Finish, i, rec.ComputedService)
	}
	return out, nil
}

func (f *Factory) calendar(row *model.FeatureRow, t time.Time) {
	local := t.In(f.loc)
	hour := local.Hour()
	angle := 2 * math.Pi * float64(hour) / hoursPerDay

	row.ArrivalHour = hour
	row.HourSin = math.Sin(angle)
	row.HourCos = math.Cos(angle)
	row.DayOfWeek = (int(local.Weekday()) + 6) % 7
	row.Month = int(local.Month())
	row.IsWeekend = row.DayOfWeek >= 5

	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, f.loc)
	since := math.Mod(local.Sub(midnight).Minutes()-f.open.Minutes(), minutesPerDay)
	if since < 0 {
		since += minutesPerDay
	}
	row.MinutesSinceOpen = since
}
