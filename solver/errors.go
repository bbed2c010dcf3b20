package solver

import "errors"

// Failure tags for solver operations. Every error returned by a Solver
// wraps exactly one of these; callers branch with errors.Is instead of
// parsing messages.
var (
	// ErrNotReady reports that the scripting runtime could not be
	// initialized. The condition is sticky: once initialization has
	// failed for a solver instance, every later call fails the same way.
	ErrNotReady = errors.New("solver runtime not ready")

	// ErrBridgeCall reports a failure inside the runtime while
	// marshalling to or invoking the bridge entry point, including a
	// panic raised by the interpreted bridge code.
	ErrBridgeCall = errors.New("bridge call failed")

	// ErrSolverFailed reports that the bridge returned a structurally
	// valid result with success=false; the wrapped message carries the
	// bridge's own diagnostic.
	ErrSolverFailed = errors.New("solver reported failure")
)
