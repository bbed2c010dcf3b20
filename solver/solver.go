// Package solver provides airfoil solver abstractions.
//
// Solver interface - the abstract interface for external airfoil solvers.
// Each solver implementation hides:
// - Runtime initialization and lifecycle
// - Request/response marshalling into the foreign call convention
// - Solver-specific error handling

package solver

import (
	"context"
)

// Solver defines the abstract interface for external airfoil solvers.
// Implementations hide runtime-specific details while exposing a
// consistent interface for point and mesh analyses.
type Solver interface {
	// Name returns the solver name (for logging/debugging).
	Name() string

	// AnalyzeAtCls evaluates the foil at a list of target lift
	// coefficients and per-sample Reynolds numbers.
	AnalyzeAtCls(ctx context.Context, req PointRequest) (*PointResult, error)

	// ComputeMesh evaluates the foil over an angle sweep at each of the
	// request's Reynolds numbers in a single bulk call.
	ComputeMesh(ctx context.Context, req MeshRequest) (*MeshResult, error)
}
