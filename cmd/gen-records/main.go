package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/waitcast/internal/synth"
	"github.com/okian/waitcast/pkg/logger"
)

// Default configuration constants.
const (
	defaultOutput  = "branch_visits.csv"
	defaultStart   = "2024-01-08"
	defaultTimeout = 5 * time.Minute
)

func main() {
	var (
		out        = flag.String("out", defaultOutput, "Output CSV path")
		rows       = flag.Int("rows", synth.DefaultRows, "Number of visits to simulate")
		seed       = flag.Uint64("seed", synth.DefaultSeed, "Random seed")
		start      = flag.String("start", defaultStart, "First business day, YYYY-MM-DD")
		tellers    = flag.Int("tellers", synth.DefaultTellers, "Parallel service counters")
		corrupt    = flag.Float64("corrupt", synth.DefaultCorruptRate, "Share of rows with an injected defect")
		duplicates = flag.Float64("duplicates", synth.DefaultDuplicates, "Share of rows emitted twice")
		uniform    = flag.Bool("uniform", false, "Use a single timestamp layout")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		synth.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	day, err := time.Parse(time.DateOnly, *start)
	if err != nil {
		os.Stderr.WriteString("Invalid -start: " + err.Error() + "\n")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	cfg := synth.Config{
		Rows:          *rows,
		Seed:          *seed,
		Start:         day,
		Tellers:       *tellers,
		CorruptRate:   *corrupt,
		DuplicateRate: *duplicates,
		MixedFormats:  !*uniform,
	}
	if _, err := synth.Run(ctx, *out, cfg); err != nil {
		os.Stderr.WriteString("Generation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
