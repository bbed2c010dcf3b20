// Package solver shared data models.
package solver

// PointRequest asks for the foil's performance at a list of target lift
// coefficients. Cl and Re are index-aligned: sample i is evaluated at
// Cl[i] and Re[i].
type PointRequest struct {
	// Foil coordinates, trailing edge around the leading edge and back.
	X []float64
	Y []float64

	Cl []float64 // target lift coefficients
	Re []float64 // per-sample Reynolds numbers

	NCrit    float64 // critical amplification factor
	XTripTop float64 // forced top transition location, 1.0 = free
	XTripBot float64
	Mach     float64

	ModelSize ModelSize // zero value selects the solver's default tier
}

// PointResult holds the per-sample output arrays of a point analysis.
// Arrays may be shorter than the request if the solver returned fewer
// rows; callers iterate over the result length.
type PointResult struct {
	Alpha  []float64 // angle of attack achieving each target, if reported
	Cl     []float64 // achieved lift coefficients
	Cd     []float64
	XTrTop []float64
	XTrBot []float64
}

// MeshRequest asks for a full polar at each Reynolds number: an angle
// sweep from AlphaMin to AlphaMax in AlphaStep increments.
type MeshRequest struct {
	X []float64
	Y []float64

	Re []float64 // one polar is computed per entry

	AlphaMin  float64
	AlphaMax  float64
	AlphaStep float64

	NCrit    float64
	XTripTop float64
	XTripBot float64
	Mach     float64

	ModelSize ModelSize
}

// MeshBlock is one Reynolds number's worth of mesh output.
type MeshBlock struct {
	Alpha  []float64
	Cl     []float64
	Cd     []float64
	XTrTop []float64
	XTrBot []float64
}

// MeshResult maps each computed Reynolds number to its output block.
// Iteration order over Blocks is unspecified; callers sort.
type MeshResult struct {
	Blocks map[float64]MeshBlock
}
