package regressor

import (
	"sort"
)

// minGain is the smallest squared-error reduction worth a split.
const minGain = 1e-12

type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
	leaf      bool
}

// tree is a CART regression tree stored as a flat node slice; node 0 is the root.
type tree struct {
	nodes []node
}

type treeBuilder struct {
	X        [][]float64
	y        []float64
	maxDepth int
	minLeaf  int
	gain     []float64 // accumulated per feature
	nodes    []node
}

// growTree fits a tree to y and adds each split's gain to gain.
func growTree(X [][]float64, y []float64, maxDepth, minLeaf int, gain []float64) tree {
	b := &treeBuilder{X: X, y: y, maxDepth: maxDepth, minLeaf: minLeaf, gain: gain}
	idx := make([]int, len(y))
	for i := range idx {
		idx[i] = i
	}
	b.grow(idx, 0)
	return tree{nodes: b.nodes}
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	var sum float64
	for _, i := range idx {
		sum += b.y[i]
	}
	id := len(b.nodes)
	b.nodes = append(b.nodes, node{leaf: true, value: sum / float64(len(idx))})

	if depth >= b.maxDepth || len(idx) < 2*b.minLeaf {
		return id
	}
	feature, threshold, gain, ok := b.bestSplit(idx, sum)
	if !ok {
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	b.gain[feature] += gain

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[id] = node{feature: feature, threshold: threshold, left: l, right: r}
	return id
}

// bestSplit scans every feature for the threshold with the largest
// squared-error reduction; the first feature wins ties.
func (b *treeBuilder) bestSplit(idx []int, total float64) (int, float64, float64, bool) {
	n := len(idx)
	parent := total * total / float64(n)
	order := make([]int, n)

	bestFeature, bestThreshold, bestGain := -1, 0.0, minGain
	for f := range b.X[idx[0]] {
		copy(order, idx)
		sort.SliceStable(order, func(a, c int) bool { return b.X[order[a]][f] < b.X[order[c]][f] })

		var leftSum float64
		for k := 0; k < n-1; k++ {
			leftSum += b.y[order[k]]
			nl := k + 1
			if nl < b.minLeaf || n-nl < b.minLeaf {
				continue
			}
			lo, hi := b.X[order[k]][f], b.X[order[k+1]][f]
			if lo == hi {
				continue
			}
			rightSum := total - leftSum
			g := leftSum*leftSum/float64(nl) + rightSum*rightSum/float64(n-nl) - parent
			if g > bestGain {
				bestFeature, bestThreshold, bestGain = f, lo+(hi-lo)/2, g
			}
		}
	}
	return bestFeature, bestThreshold, bestGain, bestFeature >= 0
}

func (t tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.nodes[i]
		if n.leaf {
			return n.value
		}
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}
