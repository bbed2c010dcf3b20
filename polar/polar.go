// Package polar holds aerodynamic result tables: coefficient columns
// sampled across operating points at a fixed Reynolds number, with
// monotonic-lift interpolation helpers used by the mesh cache.
package polar

import (
	"errors"
	"fmt"
	"strings"
)

// ErrOutOfRange reports an interpolation query outside the range covered
// by the table's samples.
var ErrOutOfRange = errors.New("outside covered range")

// Polar is a table of aerodynamic coefficients sampled across operating
// points. Index i refers to the same sample in every column; the sample
// count is set by Resize and fixed afterward.
type Polar struct {
	Name string
	Type Type

	// Analysis parameters.
	Reynolds float64 // nominal Reynolds number, the mesh cache's index
	Mach     float64
	NCrit    float64 // critical amplification factor
	XTripTop float64 // forced transition location, 1.0 = free
	XTripBot float64

	// Sample columns. Cl and Re double as request targets before an
	// analysis runs; Cd, XTrTop, XTrBot and Converged are written back
	// from solver results.
	Alpha     []float64
	Cl        []float64
	Cd        []float64
	Re        []float64
	XTrTop    []float64
	XTrBot    []float64
	Converged []bool
}

// New returns an empty polar with free transition and the customary
// default amplification factor.
func New(name string, t Type) *Polar {
	return &Polar{
		Name:     name,
		Type:     t,
		NCrit:    9.0,
		XTripTop: 1.0,
		XTripBot: 1.0,
	}
}

// Len returns the number of samples.
func (p *Polar) Len() int {
	return len(p.Alpha)
}

// Resize allocates all columns to n zeroed samples, discarding any
// existing data.
func (p *Polar) Resize(n int) {
	p.Alpha = make([]float64, n)
	p.Cl = make([]float64, n)
	p.Cd = make([]float64, n)
	p.Re = make([]float64, n)
	p.XTrTop = make([]float64, n)
	p.XTrBot = make([]float64, n)
	p.Converged = make([]bool, n)
}

// CdFromCl interpolates the drag coefficient at the given lift
// coefficient. Returns ErrOutOfRange if cl lies outside the table's
// covered lift range.
func (p *Polar) CdFromCl(cl float64) (float64, error) {
	return p.interpFromCl(p.Cd, cl)
}

// XTrTopFromCl interpolates the top-surface transition location at the
// given lift coefficient.
func (p *Polar) XTrTopFromCl(cl float64) (float64, error) {
	return p.interpFromCl(p.XTrTop, cl)
}

// XTrBotFromCl interpolates the bottom-surface transition location at
// the given lift coefficient.
func (p *Polar) XTrBotFromCl(cl float64) (float64, error) {
	return p.interpFromCl(p.XTrBot, cl)
}

// interpFromCl scans the lift column for the first pair of adjacent
// samples bracketing cl and interpolates col linearly between them. The
// lift curve is only assumed locally monotonic; the first bracket wins.
func (p *Polar) interpFromCl(col []float64, cl float64) (float64, error) {
	n := len(p.Cl)
	if n > len(col) {
		n = len(col)
	}
	for i := 0; i+1 < n; i++ {
		lo, hi := p.Cl[i], p.Cl[i+1]
		if (lo-cl)*(hi-cl) > 0 {
			continue
		}
		dcl := hi - lo
		if dcl == 0 {
			return col[i], nil
		}
		t := (cl - lo) / dcl
		return col[i] + t*(col[i+1]-col[i]), nil
	}
	return 0, fmt.Errorf("cl=%.4f in polar %q: %w", cl, p.Name, ErrOutOfRange)
}

// ExportString renders the polar as a plain-text table.
func (p *Polar) ExportString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Polar name: %s\n", p.Name)
	fmt.Fprintf(&b, "Polar type: %s\n", p.Type)
	fmt.Fprintf(&b, "Reynolds = %10.0f   Mach = %6.3f   NCrit = %6.3f\n",
		p.Reynolds, p.Mach, p.NCrit)
	fmt.Fprintf(&b, "Forced transition top/bot = %6.3f / %6.3f\n\n",
		p.XTripTop, p.XTripBot)
	fmt.Fprintf(&b, "    alpha          Cl          Cd     XTr_top     XTr_bot\n")
	for i := 0; i < p.Len(); i++ {
		fmt.Fprintf(&b, " %8.3f  %10.5f  %10.6f  %10.4f  %10.4f\n",
			p.Alpha[i], p.Cl[i], p.Cd[i], p.XTrTop[i], p.XTrBot[i])
	}
	return b.String()
}
