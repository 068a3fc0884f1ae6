package timestamp

import "time"

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithLayouts replaces the ordered layout list. Empty input keeps the defaults.
func WithLayouts(layouts ...string) Option {
	return func(n *Normalizer) {
		if len(layouts) > 0 {
			n.layouts = append([]string(nil), layouts...)
		}
	}
}

// WithLocation sets the location used for layouts without a zone.
func WithLocation(loc *time.Location) Option {
	return func(n *Normalizer) {
		if loc != nil {
			n.loc = loc
		}
	}
}
