package polar

import "math"

// RangeVariable identifies the quantity an AnalysisRange sweeps.
type RangeVariable int

const (
	RangeAlpha RangeVariable = iota
	RangeCl
	RangeReynolds
	RangeTheta
)

// AnalysisRange specifies a sequence of operating points to calculate,
// defined by inclusive bounds and an increment. A zero increment, or
// bounds closer together than the increment, yield the single value Min.
type AnalysisRange struct {
	Active bool
	Min    float64
	Max    float64
	Inc    float64
}

// NewAnalysisRange returns an active range over [min, max] with step inc.
func NewAnalysisRange(min, max, inc float64) AnalysisRange {
	return AnalysisRange{Active: true, Min: min, Max: max, Inc: inc}
}

// IsSequence reports whether the range spans more than one value.
func (r AnalysisRange) IsSequence() bool {
	return r.NValues() > 1
}

// NValues returns the number of operating points the range produces.
func (r AnalysisRange) NValues() int {
	if math.Abs(r.Inc) < 1e-6 {
		return 1 // will process Min only
	}
	if math.Abs(r.Max-r.Min) < r.Inc {
		return 1 // will process Min only
	}
	return int(math.Abs(math.Round((r.Max-r.Min)/r.Inc))) + 1
}

// Values returns the operating points, walking from Min toward Max.
// The increment's sign is ignored; the walk direction follows the
// bounds, so inverted inputs still produce a well-formed sequence.
func (r AnalysisRange) Values() []float64 {
	n := r.NValues()
	vals := make([]float64, 0, n)
	inc := math.Abs(r.Inc)
	for i := 0; i < n; i++ {
		if r.Max > r.Min {
			vals = append(vals, r.Min+float64(i)*inc)
		} else {
			vals = append(vals, r.Min-float64(i)*inc)
		}
	}
	return vals
}
