package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"aeropolar/geom"
	"aeropolar/polar"
	"aeropolar/solver"
)

const (
	// NReValues is the number of Reynolds numbers in a generated mesh,
	// log-uniformly spaced between the requested bounds inclusive.
	NReValues = 16

	// AlphaStep is the fixed angle-of-attack increment of mesh sweeps,
	// in degrees.
	AlphaStep = 0.25
)

// ErrEmptyCache reports a point query against a cache with no tables.
var ErrEmptyCache = errors.New("mesh cache is empty")

// MeshSpec bounds one mesh generation request.
type MeshSpec struct {
	ReMin    float64
	ReMax    float64
	AlphaMin float64
	AlphaMax float64

	NCrit    float64
	XTripTop float64
	XTripBot float64

	ModelSize solver.ModelSize
}

// MeshPoint is one interpolated operating point served from the cache.
type MeshPoint struct {
	Cd     float64
	XTrTop float64
	XTrBot float64
}

// PolarMeshCache precomputes a grid of polars across a Reynolds range
// for one foil and serves point queries by interpolating between them,
// avoiding repeated solver invocations.
//
// The cache itself is not locked: generation and queries must not
// overlap for a given instance. Only the solver call is serialized
// internally by the solver.
type PolarMeshCache struct {
	solver solver.Solver
	logger *zap.Logger
	fpMode geom.FingerprintMode

	polars      []*polar.Polar // sorted ascending by Reynolds number
	reValues    []float64      // Reynolds numbers used at generation
	reMin       float64
	reMax       float64
	alphaMin    float64
	alphaMax    float64
	fingerprint uint64
}

// NewPolarMeshCache creates an empty cache bound to a solver.
func NewPolarMeshCache(sv solver.Solver) *PolarMeshCache {
	return &PolarMeshCache{
		solver: sv,
		logger: zap.NewNop(),
	}
}

// NewQueryCache creates a cache with no solver bound, for serving point
// queries from tables loaded with Restore. GenerateMesh on such a cache
// returns an error instead of invoking a solver.
func NewQueryCache() *PolarMeshCache {
	return &PolarMeshCache{
		logger: zap.NewNop(),
	}
}

// WithLogger sets the logger.
func (c *PolarMeshCache) WithLogger(lg *zap.Logger) *PolarMeshCache {
	if lg != nil {
		c.logger = lg
	}
	return c
}

// WithFingerprintMode selects how geometry changes are detected.
func (c *PolarMeshCache) WithFingerprintMode(m geom.FingerprintMode) *PolarMeshCache {
	c.fpMode = m
	return c
}

// GenerateMesh fills the cache for the foil over the spec's ranges. If
// the cache already covers the same fingerprint and both requested
// ranges, it returns immediately without calling the solver. Any
// mismatch discards all tables and regenerates from scratch; there is
// no partial-range extension. On failure the cache is left empty.
func (c *PolarMeshCache) GenerateMesh(ctx context.Context, f *geom.Foil, spec MeshSpec) error {
	if f == nil {
		return fmt.Errorf("no foil set")
	}
	if c.solver == nil {
		return fmt.Errorf("no solver bound: cache is query-only")
	}
	if spec.ReMin <= 0 || spec.ReMax < spec.ReMin {
		return fmt.Errorf("invalid reynolds range [%g, %g]", spec.ReMin, spec.ReMax)
	}
	if spec.AlphaMax < spec.AlphaMin {
		return fmt.Errorf("invalid alpha range [%g, %g]", spec.AlphaMin, spec.AlphaMax)
	}

	fp := f.Fingerprint(c.fpMode)
	if len(c.polars) > 0 && fp == c.fingerprint &&
		spec.ReMin >= c.reMin && spec.ReMax <= c.reMax &&
		spec.AlphaMin >= c.alphaMin && spec.AlphaMax <= c.alphaMax {
		c.logger.Debug("mesh cache hit",
			zap.String("foil", f.Name),
			zap.Uint64("fingerprint", fp),
		)
		return nil
	}

	// Discard before calling out, so a failed generation leaves the
	// cache empty rather than stale.
	c.Clear()

	reValues := logSpacedRe(spec.ReMin, spec.ReMax, NReValues)
	res, err := c.solver.ComputeMesh(ctx, solver.MeshRequest{
		X:         f.X,
		Y:         f.Y,
		Re:        reValues,
		AlphaMin:  spec.AlphaMin,
		AlphaMax:  spec.AlphaMax,
		AlphaStep: AlphaStep,
		NCrit:     spec.NCrit,
		XTripTop:  spec.XTripTop,
		XTripBot:  spec.XTripBot,
		Mach:      0.0,
		ModelSize: spec.ModelSize,
	})
	if err != nil {
		return err
	}

	polars := make([]*polar.Polar, 0, len(res.Blocks))
	for re, block := range res.Blocks {
		polars = append(polars, materializePolar(f.Name, re, spec, block))
	}
	// The solver's block map has no guaranteed order.
	sort.Slice(polars, func(i, j int) bool {
		return polars[i].Reynolds < polars[j].Reynolds
	})

	c.polars = polars
	c.reValues = reValues
	c.reMin, c.reMax = spec.ReMin, spec.ReMax
	c.alphaMin, c.alphaMax = spec.AlphaMin, spec.AlphaMax
	c.fingerprint = fp

	c.logger.Info("polar mesh generated",
		zap.String("foil", f.Name),
		zap.Int("polars", len(polars)),
		zap.Float64("re_min", spec.ReMin),
		zap.Float64("re_max", spec.ReMax),
	)
	return nil
}

// materializePolar turns one solver block into a cache-owned polar.
func materializePolar(foilName string, re float64, spec MeshSpec, block solver.MeshBlock) *polar.Polar {
	p := polar.New(fmt.Sprintf("%s Re=%.4g", foilName, re), polar.Type1)
	p.Reynolds = re
	p.Mach = 0.0
	p.NCrit = spec.NCrit
	p.XTripTop = spec.XTripTop
	p.XTripBot = spec.XTripBot

	n := len(block.Cl)
	for _, m := range []int{len(block.Alpha), len(block.Cd), len(block.XTrTop), len(block.XTrBot)} {
		if m < n {
			n = m
		}
	}
	p.Resize(n)
	for i := 0; i < n; i++ {
		p.Alpha[i] = block.Alpha[i]
		p.Cl[i] = block.Cl[i]
		p.Cd[i] = block.Cd[i]
		p.Re[i] = re
		p.XTrTop[i] = block.XTrTop[i]
		p.XTrBot[i] = block.XTrBot[i]
		p.Converged[i] = true
	}
	return p
}

// PointFromCl interpolates drag and transition locations at (re, cl).
// The two tables bracketing re are located by an ascending scan; re
// outside the cached span clamps to the edge table instead of
// extrapolating. A cl outside a bracket table's lift range fails the
// whole query with polar.ErrOutOfRange; no partial result is returned.
func (c *PolarMeshCache) PointFromCl(re, cl float64) (MeshPoint, error) {
	if len(c.polars) == 0 {
		return MeshPoint{}, ErrEmptyCache
	}

	// First table with Reynolds >= re is the upper bracket.
	upper := -1
	for i, p := range c.polars {
		if p.Reynolds >= re {
			upper = i
			break
		}
	}

	switch {
	case upper == 0:
		return pointFromPolar(c.polars[0], cl)
	case upper == -1:
		return pointFromPolar(c.polars[len(c.polars)-1], cl)
	}

	lo, hi := c.polars[upper-1], c.polars[upper]
	loPt, err := pointFromPolar(lo, cl)
	if err != nil {
		return MeshPoint{}, err
	}
	hiPt, err := pointFromPolar(hi, cl)
	if err != nil {
		return MeshPoint{}, err
	}

	dRe := hi.Reynolds - lo.Reynolds
	if dRe == 0 {
		return hiPt, nil
	}
	t := (re - lo.Reynolds) / dRe
	return MeshPoint{
		Cd:     loPt.Cd + t*(hiPt.Cd-loPt.Cd),
		XTrTop: loPt.XTrTop + t*(hiPt.XTrTop-loPt.XTrTop),
		XTrBot: loPt.XTrBot + t*(hiPt.XTrBot-loPt.XTrBot),
	}, nil
}

func pointFromPolar(p *polar.Polar, cl float64) (MeshPoint, error) {
	cd, err := p.CdFromCl(cl)
	if err != nil {
		return MeshPoint{}, err
	}
	top, err := p.XTrTopFromCl(cl)
	if err != nil {
		return MeshPoint{}, err
	}
	bot, err := p.XTrBotFromCl(cl)
	if err != nil {
		return MeshPoint{}, err
	}
	return MeshPoint{Cd: cd, XTrTop: top, XTrBot: bot}, nil
}

// Restore fills the cache from previously generated tables, e.g. loaded
// from persistent storage. Tables are sorted ascending by Reynolds
// number; covered ranges are recomputed from the tables themselves, so
// a restored cache answers PointFromCl and reports Covered exactly as
// the cache that produced the tables did.
func (c *PolarMeshCache) Restore(fingerprint uint64, polars []*polar.Polar) {
	c.Clear()
	if len(polars) == 0 {
		return
	}

	sorted := append([]*polar.Polar(nil), polars...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Reynolds < sorted[j].Reynolds
	})

	c.polars = sorted
	c.fingerprint = fingerprint
	c.reValues = make([]float64, len(sorted))
	for i, p := range sorted {
		c.reValues[i] = p.Reynolds
	}
	c.reMin = sorted[0].Reynolds
	c.reMax = sorted[len(sorted)-1].Reynolds

	c.alphaMin = math.Inf(1)
	c.alphaMax = math.Inf(-1)
	for _, p := range sorted {
		for _, a := range p.Alpha {
			c.alphaMin = math.Min(c.alphaMin, a)
			c.alphaMax = math.Max(c.alphaMax, a)
		}
	}
	if c.alphaMin > c.alphaMax {
		c.alphaMin, c.alphaMax = 0, 0
	}
}

// Covered reports whether an operating point lies inside the generated
// Reynolds and angle ranges.
func (c *PolarMeshCache) Covered(re, alpha float64) bool {
	if len(c.polars) == 0 {
		return false
	}
	return re >= c.reMin && re <= c.reMax &&
		alpha >= c.alphaMin && alpha <= c.alphaMax
}

// Clear discards all tables and resets range and fingerprint state.
// Idempotent.
func (c *PolarMeshCache) Clear() {
	c.polars = nil
	c.reValues = nil
	c.reMin, c.reMax = 0, 0
	c.alphaMin, c.alphaMax = 0, 0
	c.fingerprint = 0
}

// Len returns the number of cached tables.
func (c *PolarMeshCache) Len() int {
	return len(c.polars)
}

// Polars returns the cached tables sorted ascending by Reynolds number.
// The slice and the tables are cache-owned; callers must not mutate.
func (c *PolarMeshCache) Polars() []*polar.Polar {
	return c.polars
}

// ReValues returns the Reynolds numbers used at generation.
func (c *PolarMeshCache) ReValues() []float64 {
	return c.reValues
}

// ReRange returns the covered Reynolds bounds.
func (c *PolarMeshCache) ReRange() (min, max float64) {
	return c.reMin, c.reMax
}

// AlphaRange returns the covered angle bounds.
func (c *PolarMeshCache) AlphaRange() (min, max float64) {
	return c.alphaMin, c.alphaMax
}

// Fingerprint returns the geometry fingerprint of the cached mesh, or 0
// when empty.
func (c *PolarMeshCache) Fingerprint() uint64 {
	return c.fingerprint
}

// logSpacedRe returns n Reynolds numbers log-uniformly spaced over
// [reMin, reMax], endpoints pinned exactly.
func logSpacedRe(reMin, reMax float64, n int) []float64 {
	if n <= 1 || reMax == reMin {
		return []float64{reMin}
	}
	vals := make([]float64, n)
	logMin := math.Log10(reMin)
	step := (math.Log10(reMax) - logMin) / float64(n-1)
	for i := range vals {
		vals[i] = math.Pow(10, logMin+float64(i)*step)
	}
	vals[0] = reMin
	vals[n-1] = reMax
	return vals
}
