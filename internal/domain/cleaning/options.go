package cleaning

import (
	"github.com/okian/waitcast/internal/domain/timestamp"
)

// OrderPolicy decides what happens to rows violating arrival <= start <= finish.
type OrderPolicy string

// Order policies.
const (
	// OrderRepair clamps start to arrival and finish to start.
	OrderRepair OrderPolicy = "repair"
	// OrderDrop removes the row.
	OrderDrop OrderPolicy = "drop"
)

// Option applies a configuration option to the Cleaner.
type Option func(*Cleaner)

// WithNormalizer sets the timestamp normalizer.
func WithNormalizer(n *timestamp.Normalizer) Option {
	return func(c *Cleaner) {
		if n != nil {
			c.normalizer = n
		}
	}
}

// WithPercentiles sets the clipping band, 0 <= lower < upper <= 100.
func WithPercentiles(lower, upper float64) Option {
	return func(c *Cleaner) {
		if lower >= 0 && upper <= 100 && lower < upper {
			c.lower = lower
			c.upper = upper
		}
	}
}

// WithMinRows sets the fewest rows Parse accepts.
func WithMinRows(n int) Option {
	return func(c *Cleaner) {
		if n > 0 {
			c.minRows = n
		}
	}
}

// WithOrderPolicy selects repair or drop for order violations.
func WithOrderPolicy(p OrderPolicy) Option {
	return func(c *Cleaner) {
		if p == OrderRepair || p == OrderDrop {
			c.orderPolicy = p
		}
	}
}
