package tuning

import (
	"strings"

	"github.com/okian/waitcast/internal/domain/regressor"
)

// Grid lists candidate values per hyperparameter. An empty dimension falls
// back to its DefaultGrid value.
type Grid struct {
	Models         []string
	NEstimators    []int
	LearningRate   []float64
	MaxDepth       []int
	MinSamplesLeaf []int
	Alpha          []float64
}

// DefaultGrid is the search space used when nothing is configured.
func DefaultGrid() Grid {
	return Grid{
		Models:         []string{regressor.ModelGBM},
		NEstimators:    []int{50, 100},
		LearningRate:   []float64{0.05, 0.1},
		MaxDepth:       []int{2, 3},
		MinSamplesLeaf: []int{1, 5},
		Alpha:          []float64{1.0},
	}
}

// Expand returns the cartesian product of the grid per model, in a fixed
// order: models as listed, then each dimension in the order given.
// Repeated points are emitted once.
func (g Grid) Expand() []regressor.Params {
	d := DefaultGrid()
	models := orDefault(g.Models, d.Models)
	nEst := orDefault(g.NEstimators, d.NEstimators)
	rates := orDefault(g.LearningRate, d.LearningRate)
	depths := orDefault(g.MaxDepth, d.MaxDepth)
	leaves := orDefault(g.MinSamplesLeaf, d.MinSamplesLeaf)
	alphas := orDefault(g.Alpha, d.Alpha)

	var out []regressor.Params
	seen := map[regressor.Params]bool{}
	add := func(p regressor.Params) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, m := range models {
		m = strings.ToLower(strings.TrimSpace(m))
		switch m {
		case regressor.ModelGBM:
			for _, n := range nEst {
				for _, lr := range rates {
					for _, depth := range depths {
						for _, leaf := range leaves {
							add(regressor.Params{Model: m, NEstimators: n, LearningRate: lr, MaxDepth: depth, MinSamplesLeaf: leaf})
						}
					}
				}
			}
		case regressor.ModelRidge:
			for _, a := range alphas {
				add(regressor.Params{Model: m, Alpha: a})
			}
		default:
			add(regressor.Params{Model: m})
		}
	}
	return out
}

// Size returns the number of points Expand yields.
func (g Grid) Size() int { return len(g.Expand()) }

func orDefault[T any](v, def []T) []T {
	if len(v) == 0 {
		return def
	}
	return v
}
