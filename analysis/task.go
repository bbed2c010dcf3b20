// NeuralFoil analysis task implementation.
//
// Information Hiding:
// - Geometry snapshotting hidden
// - Solver request marshalling hidden
// - Result write-back bounds hidden

package analysis

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"aeropolar/geom"
	"aeropolar/polar"
	"aeropolar/solver"
)

var (
	// ErrNoPolar reports an initialization attempt without a target polar.
	ErrNoPolar = errors.New("no polar set")

	// ErrNotInitialized reports a processing call before a successful Init.
	ErrNotInitialized = errors.New("task not initialized")
)

// Task runs point analyses for one polar: Init snapshots the foil
// geometry and the polar's analysis parameters, ProcessClList sends the
// polar's target lift coefficients to the solver and writes the results
// back into the polar's columns.
//
// The snapshot decouples the task from the live foil: mutating the foil
// after Init does not affect an in-flight analysis.
type Task struct {
	solver solver.Solver
	logger *zap.Logger

	polar     *polar.Polar
	x, y      []float64
	nCrit     float64
	xTripTop  float64
	xTripBot  float64
	modelSize solver.ModelSize
}

// NewTask creates a task bound to a solver.
func NewTask(sv solver.Solver) *Task {
	return &Task{
		solver: sv,
		logger: zap.NewNop(),
	}
}

// WithLogger sets the logger.
func (t *Task) WithLogger(lg *zap.Logger) *Task {
	if lg != nil {
		t.logger = lg
	}
	return t
}

// WithModelSize selects the solver tier for this task's calls.
func (t *Task) WithModelSize(m solver.ModelSize) *Task {
	t.modelSize = m
	return t
}

// Init copies the foil coordinates and the polar's analysis parameters
// into the task. The polar itself is retained as the write-back target.
func (t *Task) Init(f *geom.Foil, p *polar.Polar) error {
	if p == nil {
		return ErrNoPolar
	}
	if f == nil {
		return fmt.Errorf("no foil set")
	}

	t.polar = p
	t.nCrit = p.NCrit
	t.xTripTop = p.XTripTop
	t.xTripBot = p.XTripBot

	t.x = append([]float64(nil), f.X...)
	t.y = append([]float64(nil), f.Y...)
	return nil
}

// ProcessClList analyzes the polar's target lift coefficients at its
// per-sample Reynolds numbers. Results are written back in place; if
// the solver returns fewer rows than requested, only that many rows are
// written and the remainder stays untouched. Every written row is
// marked converged, since the external model has no non-convergence
// outcome.
func (t *Task) ProcessClList(ctx context.Context) error {
	if t.polar == nil {
		return ErrNotInitialized
	}

	req := solver.PointRequest{
		X:         t.x,
		Y:         t.y,
		Cl:        append([]float64(nil), t.polar.Cl...),
		Re:        append([]float64(nil), t.polar.Re...),
		NCrit:     t.nCrit,
		XTripTop:  t.xTripTop,
		XTripBot:  t.xTripBot,
		Mach:      0.0,
		ModelSize: t.modelSize,
	}

	res, err := t.solver.AnalyzeAtCls(ctx, req)
	if err != nil {
		return err
	}

	n := t.polar.Len()
	for _, m := range []int{len(res.Cd), len(res.Cl), len(res.XTrTop), len(res.XTrBot)} {
		if m < n {
			n = m
		}
	}
	for i := 0; i < n; i++ {
		t.polar.Cd[i] = res.Cd[i]
		t.polar.Cl[i] = res.Cl[i]
		t.polar.XTrTop[i] = res.XTrTop[i]
		t.polar.XTrBot[i] = res.XTrBot[i]
		if i < len(res.Alpha) {
			t.polar.Alpha[i] = res.Alpha[i]
		}
		t.polar.Converged[i] = true
	}

	t.logger.Debug("point analysis written back",
		zap.String("polar", t.polar.Name),
		zap.Int("requested", t.polar.Len()),
		zap.Int("written", n),
	)
	return nil
}
