package features

import "time"

// Option applies a configuration option to the Factory.
type Option func(*Factory)

// WithWindow sets the row count of rolling means and of the fill window.
func WithWindow(n int) Option {
	return func(f *Factory) {
		if n > 0 {
			f.window = n
		}
	}
}

// WithArrivalWindow sets the trailing window of arrivals_per_5min.
func WithArrivalWindow(d time.Duration) Option {
	return func(f *Factory) {
		if d > 0 {
			f.arrivalWindow = d
		}
	}
}

// WithTrafficWindow sets the trailing window of traffic_intensity.
func WithTrafficWindow(d time.Duration) Option {
	return func(f *Factory) {
		if d > 0 {
			f.trafficWindow = d
		}
	}
}

// WithEWMAAlpha sets the EWMA smoothing factor, in (0, 1].
func WithEWMAAlpha(alpha float64) Option {
	return func(f *Factory) {
		if alpha > 0 && alpha <= 1 {
			f.alpha = alpha
		}
	}
}

// WithBranchOpen sets the daily opening time as an offset from midnight.
func WithBranchOpen(offset time.Duration) Option {
	return func(f *Factory) {
		if offset >= 0 && offset < 24*time.Hour {
			f.open = offset
		}
	}
}

// WithLocation sets the branch time zone used for calendar features.
func WithLocation(loc *time.Location) Option {
	return func(f *Factory) {
		if loc != nil {
			f.loc = loc
		}
	}
}

// WithFills sets the constants used before a column has any known history.
func WithFills(fl Fills) Option {
	return func(f *Factory) { f.fills = fl }
}
