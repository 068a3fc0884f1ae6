// Package timestamp parses heterogeneous timestamp values into UTC instants.
//
// String values are tried against an ordered layout list, first match wins.
// Anything left is read as a Unix epoch: magnitudes of at least 1e11 are
// milliseconds, smaller ones seconds.
package timestamp

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Epoch interpretation bounds.
const (
	millisThreshold = 1e11
	maxEpochSeconds = 253402300799 // 9999-12-31T23:59:59Z
)

// DefaultLayouts are tried in order.
var DefaultLayouts = []string{ //nolint:gochecknoglobals // read-only defaults
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"02-Jan-2006 15:04:05",
	"Jan 2 2006 15:04:05",
}

// Normalizer converts raw timestamp values to canonical instants.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	layouts []string
	loc     *time.Location
}

// New creates a Normalizer with DefaultLayouts in UTC.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		layouts: append([]string(nil), DefaultLayouts...),
		loc:     time.UTC,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Layouts returns a copy of the configured layout list.
func (n *Normalizer) Layouts() []string {
	return append([]string(nil), n.layouts...)
}

// Normalize parses v into a UTC instant or returns *UnparsableTimestampError.
func (n *Normalizer) Normalize(v any) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return time.Time{}, &UnparsableTimestampError{Value: v}
		}
		return val.UTC(), nil
	case string:
		return n.parseString(val)
	case []byte:
		return n.parseString(string(val))
	case float64:
		return fromEpoch(val, v)
	case float32:
		return fromEpoch(float64(val), v)
	case int:
		return fromEpoch(float64(val), v)
	case int32:
		return fromEpoch(float64(val), v)
	case int64:
		return fromEpoch(float64(val), v)
	case uint32:
		return fromEpoch(float64(val), v)
	case uint64:
		return fromEpoch(float64(val), v)
	}
	return time.Time{}, &UnparsableTimestampError{Value: v}
}

func (n *Normalizer) parseString(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, &UnparsableTimestampError{Value: raw}
	}
	for _, layout := range n.layouts {
		if t, err := time.ParseInLocation(layout, s, n.loc); err == nil {
			return t.UTC(), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, &UnparsableTimestampError{Value: raw}
	}
	return fromEpoch(f, raw)
}

// fromEpoch interprets f as seconds or milliseconds since the Unix epoch.
func fromEpoch(f float64, raw any) (time.Time, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return time.Time{}, &UnparsableTimestampError{Value: raw}
	}
	if f >= millisThreshold {
		if f/1000 > maxEpochSeconds {
			return time.Time{}, &UnparsableTimestampError{Value: raw}
		}
		return time.UnixMilli(int64(math.Round(f))).UTC(), nil
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC(), nil
}
