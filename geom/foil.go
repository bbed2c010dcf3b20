// Package geom provides 2D airfoil geometry: coordinate containers,
// NACA series generators, Selig-format file I/O and geometry
// fingerprinting for cache invalidation.
package geom

import (
	"fmt"
	"math"
)

// Foil is a 2D airfoil defined by its surface coordinates.
// Points run from the trailing edge along the upper surface, around the
// leading edge, and back along the lower surface to the trailing edge
// (Selig ordering). X and Y always have equal length.
type Foil struct {
	Name string
	X    []float64
	Y    []float64
}

// NewFoil creates a foil from coordinate slices. The slices are copied.
func NewFoil(name string, x, y []float64) (*Foil, error) {
	f := &Foil{
		Name: name,
		X:    append([]float64(nil), x...),
		Y:    append([]float64(nil), y...),
	}
	if err := f.Check(); err != nil {
		return nil, err
	}
	return f, nil
}

// N returns the number of surface points.
func (f *Foil) N() int {
	return len(f.X)
}

// Copy returns a deep copy of the foil.
func (f *Foil) Copy() *Foil {
	return &Foil{
		Name: f.Name,
		X:    append([]float64(nil), f.X...),
		Y:    append([]float64(nil), f.Y...),
	}
}

// Check validates the coordinate arrays: equal lengths, at least three
// points, all values finite.
func (f *Foil) Check() error {
	if len(f.X) != len(f.Y) {
		return fmt.Errorf("coordinate length mismatch: %d x values, %d y values", len(f.X), len(f.Y))
	}
	if len(f.X) < 3 {
		return fmt.Errorf("too few points: %d (need at least 3)", len(f.X))
	}
	for i := range f.X {
		if math.IsNaN(f.X[i]) || math.IsInf(f.X[i], 0) ||
			math.IsNaN(f.Y[i]) || math.IsInf(f.Y[i], 0) {
			return fmt.Errorf("non-finite coordinate at point %d", i)
		}
	}
	return nil
}

// LeadingEdgeIndex returns the index of the point with minimum x,
// splitting the surface into upper (0..i) and lower (i..n-1) runs.
func (f *Foil) LeadingEdgeIndex() int {
	ile := 0
	for i := 1; i < len(f.X); i++ {
		if f.X[i] < f.X[ile] {
			ile = i
		}
	}
	return ile
}

// surfaceY interpolates the y value of one surface run at chordwise
// station x. The run is given by ascending-x index bounds.
func surfaceY(xs, ys []float64, x float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	if x <= xs[0] {
		return ys[0]
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] >= x {
			dx := xs[i] - xs[i-1]
			if dx == 0 {
				return ys[i]
			}
			t := (x - xs[i-1]) / dx
			return ys[i-1] + t*(ys[i]-ys[i-1])
		}
	}
	return ys[len(ys)-1]
}

// surfaces splits the foil at the leading edge and returns both runs in
// ascending-x order.
func (f *Foil) surfaces() (xu, yu, xl, yl []float64) {
	ile := f.LeadingEdgeIndex()
	// Upper run is stored TE->LE; reverse it to ascending x.
	for i := ile; i >= 0; i-- {
		xu = append(xu, f.X[i])
		yu = append(yu, f.Y[i])
	}
	for i := ile; i < len(f.X); i++ {
		xl = append(xl, f.X[i])
		yl = append(yl, f.Y[i])
	}
	return xu, yu, xl, yl
}

// MaxThickness returns the maximum thickness-to-chord ratio, estimated
// by sampling both surfaces at cosine-spaced stations.
func (f *Foil) MaxThickness() float64 {
	xu, yu, xl, yl := f.surfaces()
	maxT := 0.0
	for k := 0; k <= 100; k++ {
		x := 0.5 * (1 - math.Cos(float64(k)*math.Pi/100))
		t := surfaceY(xu, yu, x) - surfaceY(xl, yl, x)
		if t > maxT {
			maxT = t
		}
	}
	return maxT
}

// MaxCamber returns the maximum camber-to-chord ratio, estimated by
// sampling the mean line at cosine-spaced stations.
func (f *Foil) MaxCamber() float64 {
	xu, yu, xl, yl := f.surfaces()
	maxC := 0.0
	for k := 0; k <= 100; k++ {
		x := 0.5 * (1 - math.Cos(float64(k)*math.Pi/100))
		c := 0.5 * (surfaceY(xu, yu, x) + surfaceY(xl, yl, x))
		if math.Abs(c) > math.Abs(maxC) {
			maxC = c
		}
	}
	return maxC
}
