package evaluation

// DefaultMAPEFloor is the smallest MAPE denominator, in minutes.
const DefaultMAPEFloor = 1.0

type options struct {
	mapeFloor float64
}

// Option configures an evaluation.
type Option func(*options)

// WithMAPEFloor sets the smallest denominator used by MAPE. Non-positive
// values are ignored.
func WithMAPEFloor(floor float64) Option {
	return func(o *options) {
		if floor > 0 {
			o.mapeFloor = floor
		}
	}
}

func newOptions(opts []Option) options {
	o := options{mapeFloor: DefaultMAPEFloor}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
