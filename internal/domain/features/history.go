package features

import (
	"container/heap"
	"time"

	"github.com/okian/waitcast/internal/domain/numeric"
)

// pending is a value that becomes observable at a given instant.
type pending struct {
	at    time.Time
	index int
	value float64
}

// pendingHeap orders pending values by (at, index).
type pendingHeap []pending

func (h pendingHeap) Len() int { return len(h) }
func (h pendingHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].index < h[j].index
	}
	return h[i].at.Before(h[j].at)
}
func (h pendingHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *pendingHeap) Push(x any)   { *h = append(*h, x.(pending)) }
func (h *pendingHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// timeline releases values into a series once their instant has passed.
type timeline struct {
	queue  pendingHeap
	series *series
}

func newTimeline(s *series) *timeline {
	return &timeline{series: s}
}

func (t *timeline) schedule(at time.Time, index int, value float64) {
	heap.Push(&t.queue, pending{at: at, index: index, value: value})
}

// advance moves every value observable at now (at <= now) into the series.
func (t *timeline) advance(now time.Time) {
	for t.queue.Len() > 0 && !t.queue[0].at.After(now) {
		p := heap.Pop(&t.queue).(pending)
		t.series.observe(p.value)
	}
}

// outstanding counts values not yet observable.
func (t *timeline) outstanding() int { return t.queue.Len() }

// series is the known history of one column in the order values became known.
type series struct {
	values   []float64
	window   int
	alpha    float64
	constant float64
	ewma     float64
}

func newSeries(window int, alpha, constant float64) *series {
	return &series{window: window, alpha: alpha, constant: constant}
}

// fill stands in for a missing lag: the median of the first window known
// values, or the fitted constant while nothing is known yet.
func (s *series) fill() float64 {
	if len(s.values) == 0 {
		return s.constant
	}
	return numeric.Median(s.values[:min(len(s.values), s.window)])
}

func (s *series) observe(v float64) {
	if len(s.values) == 0 {
		s.ewma = v
	} else {
		s.ewma = s.alpha*v + (1-s.alpha)*s.ewma
	}
	s.values = append(s.values, v)
}

// lag returns the k-th most recent value, or the edge fill.
func (s *series) lag(k int) float64 {
	if len(s.values) < k {
		return s.fill()
	}
	return s.values[len(s.values)-k]
}

// rolling returns the mean of the last window values, of those available
// when fewer, or the fitted constant when none.
func (s *series) rolling() float64 {
	if len(s.values) == 0 {
		return s.constant
	}
	return numeric.Mean(numeric.Tail(s.values, s.window))
}

func (s *series) smoothed() float64 {
	if len(s.values) == 0 {
		return s.constant
	}
	return s.ewma
}
