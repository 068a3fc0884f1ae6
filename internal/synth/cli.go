package synth

import (
	"context"
	"os"
	"time"

	"github.com/okian/waitcast/pkg/logger"
)

// Run writes a generated log to path and reports what was injected.
func Run(ctx context.Context, path string, cfg Config) (Stats, error) {
	log := logger.Get().Named("synth")
	started := time.Now()

	stats, err := WriteFile(path, cfg)
	if err != nil {
		log.Error(ctx, "failed to write branch log", logger.String("path", path), logger.Error(err))
		return stats, err
	}
	log.Info(ctx, "branch log written",
		logger.String("path", path),
		logger.Int("visits", stats.Visits),
		logger.Int("rows", stats.Rows),
		logger.Int("corrupted", stats.Corrupted),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("days", stats.Days),
		logger.Duration("elapsed", time.Since(started)),
	)
	return stats, nil
}

// ShowHelp prints usage information for the generator.
func ShowHelp() {
	os.Stdout.WriteString(`Waitcast Branch Log Generator
=============================

Simulates a multi-teller branch and writes its visit log as CSV, with
mixed timestamp encodings, duplicates and corrupt values.

Usage:
  go run ./cmd/gen-records [options]

Options:
  -out string
        Output CSV path (default "branch_visits.csv")
  -rows int
        Number of visits to simulate (default 2000)
  -seed uint
        Random seed; the same seed yields the same log (default 42)
  -start string
        First business day, YYYY-MM-DD (default "2024-01-08")
  -tellers int
        Parallel service counters (default 3)
  -corrupt float
        Share of rows with an injected defect (default 0.03)
  -duplicates float
        Share of rows emitted twice (default 0.01)
  -uniform
        Use a single timestamp layout for every row
  -help
        Show this help message

Examples:
  go run ./cmd/gen-records -rows 5000 -out data/visits.csv
  WAITCAST_DATA_PATH=data/visits.csv go run ./cmd
`) //nolint:errcheck // help output to stdout
}
