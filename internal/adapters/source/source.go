// Package source loads the historical visit extract into raw records.
package source

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/okian/waitcast/internal/domain/model"
)

// Reader parses delimited extracts with a header row.
type Reader struct {
	delimiter rune
}

// New creates a Reader with configuration options.
func New(opts ...Option) *Reader {
	r := &Reader{delimiter: ','}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadFile opens path and parses it. A missing file is reported as
// *InputNotFoundError before anything is read.
func (r *Reader) ReadFile(path string) ([]model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &InputNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer func() { _ = f.Close() }()
	return r.Read(f)
}

// Read parses an extract. Every column is read as text so the cleaner sees
// the original values; extra columns are ignored. A header with no data
// rows yields no records.
func (r *Reader) Read(in io.Reader) ([]model.Record, error) {
	body, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	header, rest, _ := strings.Cut(strings.TrimPrefix(string(body), "\ufeff"), "\n")
	if strings.TrimSpace(header) == "" {
		return nil, fmt.Errorf("%w: empty input", ErrRead)
	}
	if err := checkHeader(header, r.delimiter); err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest) == "" {
		return nil, nil
	}

	df := dataframe.ReadCSV(strings.NewReader(header+"\n"+rest),
		dataframe.WithDelimiter(r.delimiter),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, df.Err)
	}

	if err := checkHeader(strings.Join(df.Names(), string(r.delimiter)), r.delimiter); err != nil {
		return nil, err
	}
	n := df.Nrow()
	cols := make(map[string][]string, len(model.InputColumns))
	for _, name := range model.InputColumns {
		cols[name] = df.Col(name).Records()
	}

	out := make([]model.Record, n)
	for i := range out {
		out[i] = model.Record{
			Line:        i + 2, // header is line 1
			ArrivalTime: cols[model.ColArrivalTime][i],
			StartTime:   cols[model.ColStartTime][i],
			FinishTime:  cols[model.ColFinishTime][i],
			WaitTime:    cols[model.ColWaitTime][i],
			QueueLength: cols[model.ColQueueLength][i],
		}
	}
	return out, nil
}

func checkHeader(header string, delimiter rune) error {
	present := map[string]bool{}
	for _, name := range strings.Split(strings.TrimRight(header, "\r"), string(delimiter)) {
		present[strings.Trim(name, `"`)] = true
	}
	var missing []string
	for _, name := range model.InputColumns {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}
