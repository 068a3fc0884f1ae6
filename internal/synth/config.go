package synth

import "time"

// Default generator configuration constants.
const (
	DefaultRows         = 2000
	DefaultSeed         = 42
	DefaultTellers      = 3
	DefaultCorruptRate  = 0.03
	DefaultDuplicates   = 0.01
	defaultOpenHour     = 9
	defaultCloseHour    = 17
	defaultMeanService  = 6.0 // minutes
	defaultBaseArrivals = 0.35
)

// Config holds configuration for the generator.
type Config struct {
	Rows          int       // visits to generate
	Seed          uint64    // random seed; the same seed yields the same log
	Start         time.Time // first business day, midnight
	Tellers       int       // parallel service counters
	CorruptRate   float64   // share of rows with an injected defect
	DuplicateRate float64   // share of rows emitted twice
	MixedFormats  bool      // rotate timestamp layouts and epochs
}

// DefaultConfig returns the configuration used by the CLI without flags.
func DefaultConfig() Config {
	return Config{
		Rows:          DefaultRows,
		Seed:          DefaultSeed,
		Start:         time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC),
		Tellers:       DefaultTellers,
		CorruptRate:   DefaultCorruptRate,
		DuplicateRate: DefaultDuplicates,
		MixedFormats:  true,
	}
}

// Stats describes a generated log.
type Stats struct {
	Visits     int `json:"visits"`
	Rows       int `json:"rows"`
	Corrupted  int `json:"corrupted"`
	Duplicates int `json:"duplicates"`
	Days       int `json:"days"`
}
