package core

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/interp"
)

// LookupTable is a piecewise-linear function sampled at strictly increasing
// abscissae. It evaluates to zero outside [XMin, XMax].
type LookupTable struct {
	xs, ys []float64
	pl     interp.PiecewiseLinear
}

// NewLookupTable sorts the samples by x and fits the interpolant. Duplicate
// abscissae and fewer than two samples are rejected.
func NewLookupTable(xs, ys []float64) (*LookupTable, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d abscissae vs %d values", ErrBadLookupTable, len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 samples, got %d", ErrBadLookupTable, len(xs))
	}

	order := make([]int, len(xs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return xs[order[a]] < xs[order[b]] })

	t := &LookupTable{
		xs: make([]float64, len(xs)),
		ys: make([]float64, len(ys)),
	}
	for i, j := range order {
		t.xs[i] = xs[j]
		t.ys[i] = ys[j]
		if i > 0 && t.xs[i] <= t.xs[i-1] {
			return nil, fmt.Errorf("%w: duplicate abscissa %g", ErrBadLookupTable, t.xs[i])
		}
	}
	if err := t.pl.Fit(t.xs, t.ys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadLookupTable, err)
	}
	return t, nil
}

// Eval returns the interpolated value at x.
func (t *LookupTable) Eval(x float64) float64 {
	if x < t.xs[0] || x > t.xs[len(t.xs)-1] {
		return 0
	}
	return t.pl.Predict(x)
}

// XMin is the smallest tabulated abscissa.
func (t *LookupTable) XMin() float64 { return t.xs[0] }

// XMax is the largest tabulated abscissa.
func (t *LookupTable) XMax() float64 { return t.xs[len(t.xs)-1] }

// Xs returns the tabulated abscissae. The slice must not be modified.
func (t *LookupTable) Xs() []float64 { return t.xs }

// Scaled returns a copy of the table with every value multiplied by s.
func (t *LookupTable) Scaled(s float64) *LookupTable {
	ys := make([]float64, len(t.ys))
	for i, y := range t.ys {
		ys[i] = y * s
	}
	out, _ := NewLookupTable(t.xs, ys)
	return out
}
