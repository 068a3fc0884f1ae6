// Package preprocess turns named feature rows into a dense model matrix.
//
// Numeric columns are median-filled then standardized; categorical columns
// are mode-filled then one-hot encoded over the categories seen in Fit.
// NaN marks a missing value. All statistics come from Fit only.
package preprocess

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"

	"github.com/okian/waitcast/internal/domain/model"
	"github.com/okian/waitcast/internal/domain/numeric"
)

type numericStats struct {
	median float64
	mean   float64
	std    float64
}

type categoricalStats struct {
	mode       float64
	categories []float64
}

// Pipeline is fitted once and then reused for every transform.
type Pipeline struct {
	numeric     []string
	categorical []string

	fitted bool
	num    []numericStats
	cat    []categoricalStats
	names  []string
	source []string
}

// New returns a pipeline over the model feature schema unless overridden.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		numeric:     model.NumericColumns(),
		categorical: append([]string(nil), model.CategoricalColumns...),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fit learns fill values, scaling and categories from rows.
func (p *Pipeline) Fit(rows []map[string]float64) error {
	if len(rows) == 0 {
		return ErrEmptyInput
	}
	if err := p.checkShape(rows); err != nil {
		return err
	}

	p.num = make([]numericStats, len(p.numeric))
	for i, col := range p.numeric {
		present := presentValues(rows, col)
		st := numericStats{median: 0, mean: 0, std: 1}
		if len(present) > 0 {
			st.median = numeric.Median(present)
			filled := fill(rows, col, st.median)
			st.mean = numeric.Mean(filled)
			st.std = numeric.Std(filled)
			if st.std == 0 || !numeric.Finite(st.std) {
				st.std = 1
			}
		}
		p.num[i] = st
	}

	p.cat = make([]categoricalStats, len(p.categorical))
	for i, col := range p.categorical {
		present := presentValues(rows, col)
		st := categoricalStats{mode: mode(present)}
		seen := map[float64]struct{}{}
		for _, v := range present {
			seen[v] = struct{}{}
		}
		if len(present) < len(rows) {
			seen[st.mode] = struct{}{}
		}
		for v := range seen {
			st.categories = append(st.categories, v)
		}
		sort.Float64s(st.categories)
		p.cat[i] = st
	}

	p.names = p.names[:0]
	p.source = p.source[:0]
	p.names = append(p.names, p.numeric...)
	p.source = append(p.source, p.numeric...)
	for i, col := range p.categorical {
		for _, c := range p.cat[i].categories {
			p.names = append(p.names, col+"_"+strconv.FormatFloat(c, 'g', -1, 64))
			p.source = append(p.source, col)
		}
	}
	p.fitted = true
	return nil
}

// Transform returns the encoded matrix for rows.
func (p *Pipeline) Transform(rows []map[string]float64) ([][]float64, error) {
	if !p.fitted {
		return nil, ErrNotFitted
	}
	if err := p.checkShape(rows); err != nil {
		return nil, err
	}

	out := make([][]float64, len(rows))
	width := len(p.names)
	for r, row := range rows {
		x := make([]float64, width)
		for i, col := range p.numeric {
			st := p.num[i]
			v := row[col]
			if math.IsNaN(v) {
				v = st.median
			}
			x[i] = (v - st.mean) / st.std
		}
		off := len(p.numeric)
		for i, col := range p.categorical {
			st := p.cat[i]
			v := row[col]
			if math.IsNaN(v) {
				v = st.mode
			}
			if k, ok := slices.BinarySearch(st.categories, v); ok {
				x[off+k] = 1
			}
			off += len(st.categories)
		}
		out[r] = x
	}
	return out, nil
}

// FitTransform is Fit followed by Transform on the same rows.
func (p *Pipeline) FitTransform(rows []map[string]float64) ([][]float64, error) {
	if err := p.Fit(rows); err != nil {
		return nil, err
	}
	return p.Transform(rows)
}

// FeatureNames returns the output column names in matrix order.
func (p *Pipeline) FeatureNames() []string {
	return append([]string(nil), p.names...)
}

// Sources maps each output column to the input column it was derived from.
func (p *Pipeline) Sources() []string {
	return append([]string(nil), p.source...)
}

// Fitted reports whether Fit has succeeded.
func (p *Pipeline) Fitted() bool { return p.fitted }

func (p *Pipeline) checkShape(rows []map[string]float64) error {
	for i, row := range rows {
		var missing []string
		for _, col := range p.numeric {
			if _, ok := row[col]; !ok {
				missing = append(missing, col)
			}
		}
		for _, col := range p.categorical {
			if _, ok := row[col]; !ok {
				missing = append(missing, col)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("transform: %w", &PredictionShapeError{Row: i, Missing: missing})
		}
	}
	return nil
}

func presentValues(rows []map[string]float64, col string) []float64 {
	out := make([]float64, 0, len(rows))
	for _, row := range rows {
		if v := row[col]; !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func fill(rows []map[string]float64, col string, with float64) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		v := row[col]
		if math.IsNaN(v) {
			v = with
		}
		out[i] = v
	}
	return out
}

// mode returns the most frequent value; ties go to the smallest. Zero when empty.
func mode(x []float64) float64 {
	counts := make(map[float64]int, len(x))
	for _, v := range x {
		counts[v]++
	}
	best, bestCount := 0.0, 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best
}
