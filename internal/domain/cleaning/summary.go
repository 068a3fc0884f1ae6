package cleaning

// Drop reasons reported in Summary.Dropped.
const (
	ReasonUnparsableArrival = "unparsable_arrival_time"
	ReasonUnparsableStart   = "unparsable_start_time"
	ReasonUnparsableFinish  = "unparsable_finish_time"
	ReasonDuplicate         = "duplicate"
	ReasonOrderViolation    = "order_violation"
)

// Summary aggregates row-local outcomes of cleaning so they are reported
// once instead of raised per row.
type Summary struct {
	InputRows  int `json:"input_rows"`
	OutputRows int `json:"output_rows"`

	// Dropped counts removed rows by reason.
	Dropped map[string]int `json:"dropped"`

	// Repaired counts rows whose timestamps were clamped into order.
	Repaired int `json:"repaired"`

	// WaitDerived counts wait times recomputed as start - arrival.
	WaitDerived int `json:"wait_derived"`

	// Invalid counts present but unusable numeric values by column.
	Invalid map[string]int `json:"invalid"`

	// Imputed and Clipped count values changed by Apply, by column.
	Imputed map[string]int `json:"imputed"`
	Clipped map[string]int `json:"clipped"`
}

func newSummary() Summary {
	return Summary{
		Dropped: map[string]int{},
		Invalid: map[string]int{},
		Imputed: map[string]int{},
		Clipped: map[string]int{},
	}
}

// TotalDropped sums Dropped over every reason.
func (s Summary) TotalDropped() int {
	total := 0
	for _, n := range s.Dropped {
		total += n
	}
	return total
}

// Merge combines a Parse summary with an Apply summary. Row totals come from
// s when set, otherwise from o.
func (s Summary) Merge(o Summary) Summary {
	out := newSummary()
	out.InputRows = s.InputRows
	if out.InputRows == 0 {
		out.InputRows = o.InputRows
	}
	out.OutputRows = o.OutputRows
	if out.OutputRows == 0 {
		out.OutputRows = s.OutputRows
	}
	out.Repaired = s.Repaired + o.Repaired
	out.WaitDerived = s.WaitDerived + o.WaitDerived
	for _, pair := range []struct{ dst, a, b map[string]int }{
		{out.Dropped, s.Dropped, o.Dropped},
		{out.Invalid, s.Invalid, o.Invalid},
		{out.Imputed, s.Imputed, o.Imputed},
		{out.Clipped, s.Clipped, o.Clipped},
	} {
		for k, v := range pair.a {
			pair.dst[k] += v
		}
		for k, v := range pair.b {
			pair.dst[k] += v
		}
	}
	return out
}
