package synth

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/okian/waitcast/internal/domain/model"
)

// ErrWrite indicates the generated log could not be written.
var ErrWrite = errors.New("synth: write failed")

// WriteCSV writes records with the input header in model.InputColumns order.
func WriteCSV(w io.Writer, records []model.Record) error {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, append([]string(nil), model.InputColumns...))
	for i := range records {
		r := &records[i]
		rows = append(rows, []string{
			fmt.Sprint(r.ArrivalTime),
			fmt.Sprint(r.StartTime),
			fmt.Sprint(r.FinishTime),
			r.WaitTime,
			r.QueueLength,
		})
	}

	df := dataframe.LoadRecords(rows,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	if df.Err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, df.Err)
	}
	if err := df.WriteCSV(w, dataframe.WriteHeader(true)); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// WriteFile generates a log for cfg and writes it to path.
func WriteFile(path string, cfg Config) (Stats, error) {
	records, stats := Generate(cfg)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return stats, fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return stats, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := WriteCSV(f, records); err != nil {
		_ = f.Close()
		return stats, err
	}
	if err := f.Close(); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return stats, nil
}
