package model

import "math"

// Engineered feature column names, in model matrix order.
const (
	FeatArrivalHour      = "arrival_hour"
	FeatHourSin          = "hour_sin"
	FeatHourCos          = "hour_cos"
	FeatDayOfWeek        = "day_of_week"
	FeatMonth            = "month"
	FeatIsWeekend        = "is_weekend"
	FeatMinutesSinceOpen = "minutes_since_open"

	FeatQueueLength        = "queue_length_numeric"
	FeatRollingQueueMean   = "rolling_queue_mean_5"
	FeatTrafficIntensity   = "traffic_intensity"
	FeatCumulativeInSystem = "cumulative_in_system"

	FeatArrivalsPer5Min     = "arrivals_per_5min"
	FeatArrivalGapSeconds   = "arrival_gap_seconds"
	FeatRollingArrivalGap   = "rolling_arrival_gap_mean_5"
	FeatCumulativeCustomers = "cumulative_customers"
	FeatRollingServiceMean  = "rolling_service_mean_5"
	FeatServiceLoadRatio    = "service_load_ratio"
	FeatWaitLag1            = "wait_time_lag_1"
	FeatWaitLag2            = "wait_time_lag_2"
	FeatWaitEWMA            = "wait_time_ewma"
	FeatQueueLag1           = "queue_length_lag_1"
	FeatQueueLag2           = "queue_length_lag_2"
	FeatQueueEWMA           = "queue_length_ewma"
	FeatServiceLag1         = "computed_service_lag_1"
	FeatServiceLag2         = "computed_service_lag_2"
	FeatServiceEWMA         = "computed_service_ewma"
)

// FeatureColumns is the fixed model matrix schema. computed_service is
// carried on FeatureRow but excluded: it is the ticket's own service time.
var FeatureColumns = []string{ //nolint:gochecknoglobals // fixed schema
	FeatArrivalHour,
	FeatHourSin,
	FeatHourCos,
	FeatDayOfWeek,
	FeatMonth,
	FeatIsWeekend,
	FeatMinutesSinceOpen,
	FeatQueueLength,
	FeatRollingQueueMean,
	FeatTrafficIntensity,
	FeatCumulativeInSystem,
	FeatArrivalsPer5Min,
	FeatArrivalGapSeconds,
	FeatRollingArrivalGap,
	FeatCumulativeCustomers,
	FeatRollingServiceMean,
	FeatServiceLoadRatio,
	FeatWaitLag1,
	FeatWaitLag2,
	FeatWaitEWMA,
	FeatQueueLag1,
	FeatQueueLag2,
	FeatQueueEWMA,
	FeatServiceLag1,
	FeatServiceLag2,
	FeatServiceEWMA,
}

// CategoricalColumns are one-hot encoded by the preprocessor.
var CategoricalColumns = []string{FeatDayOfWeek, FeatMonth} //nolint:gochecknoglobals // fixed schema

// NumericColumns returns FeatureColumns minus CategoricalColumns, in order.
func NumericColumns() []string {
	out := make([]string, 0, len(FeatureColumns))
	for _, c := range FeatureColumns {
		if c == FeatDayOfWeek || c == FeatMonth {
			continue
		}
		out = append(out, c)
	}
	return out
}

// FeatureRow is a cleaned record plus its engineered features. Every value
// depends only on rows at or before Index in arrival order.
type FeatureRow struct {
	Index int
	CleanedRecord

	ArrivalHour      int
	HourSin          float64
	HourCos          float64
	DayOfWeek        int // Monday = 0
	Month            int
	IsWeekend        bool
	MinutesSinceOpen float64

	RollingQueueMean   float64
	TrafficIntensity   float64 // arrivals per minute
	CumulativeInSystem int

	ArrivalsPer5Min       int
	ArrivalGapSeconds     float64
	RollingArrivalGapMean float64
	CumulativeCustomers   int

	RollingServiceMean float64
	ServiceLoadRatio   float64

	WaitLag1, WaitLag2, WaitEWMA          float64
	QueueLag1, QueueLag2, QueueEWMA       float64
	ServiceLag1, ServiceLag2, ServiceEWMA float64
}

// Target returns the regression target, wait time in minutes.
func (r *FeatureRow) Target() float64 { return r.WaitTime }

// Value returns the named model column. ok is false for unknown names.
func (r *FeatureRow) Value(name string) (float64, bool) { //nolint:gocyclo // flat column switch
	switch name {
	case FeatArrivalHour:
		return float64(r.ArrivalHour), true
	case FeatHourSin:
		return r.HourSin, true
	case FeatHourCos:
		return r.HourCos, true
	case FeatDayOfWeek:
		return float64(r.DayOfWeek), true
	case FeatMonth:
		return float64(r.Month), true
	case FeatIsWeekend:
		if r.IsWeekend {
			return 1, true
		}
		return 0, true
	case FeatMinutesSinceOpen:
		return r.MinutesSinceOpen, true
	case FeatQueueLength:
		return r.QueueLength, true
	case FeatRollingQueueMean:
		return r.RollingQueueMean, true
	case FeatTrafficIntensity:
		return r.TrafficIntensity, true
	case FeatCumulativeInSystem:
		return float64(r.CumulativeInSystem), true
	case FeatArrivalsPer5Min:
		return float64(r.ArrivalsPer5Min), true
	case FeatArrivalGapSeconds:
		return r.ArrivalGapSeconds, true
	case FeatRollingArrivalGap:
		return r.RollingArrivalGapMean, true
	case FeatCumulativeCustomers:
		return float64(r.CumulativeCustomers), true
	case FeatRollingServiceMean:
		return r.RollingServiceMean, true
	case FeatServiceLoadRatio:
		return r.ServiceLoadRatio, true
	case FeatWaitLag1:
		return r.WaitLag1, true
	case FeatWaitLag2:
		return r.WaitLag2, true
	case FeatWaitEWMA:
		return r.WaitEWMA, true
	case FeatQueueLag1:
		return r.QueueLag1, true
	case FeatQueueLag2:
		return r.QueueLag2, true
	case FeatQueueEWMA:
		return r.QueueEWMA, true
	case FeatServiceLag1:
		return r.ServiceLag1, true
	case FeatServiceLag2:
		return r.ServiceLag2, true
	case FeatServiceEWMA:
		return r.ServiceEWMA, true
	case ColComputedService:
		return r.ComputedService, true
	}
	return math.NaN(), false
}

// Values returns the model columns as a map, the shape accepted by prediction.
func (r *FeatureRow) Values() map[string]float64 {
	out := make(map[string]float64, len(FeatureColumns))
	for _, c := range FeatureColumns {
		v, _ := r.Value(c)
		out[c] = v
	}
	return out
}
