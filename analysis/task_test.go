package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"

	"aeropolar/geom"
	"aeropolar/polar"
	"aeropolar/solver"
)

// stubSolver is a scripted Solver that counts invocations and records
// the last request of each kind.
type stubSolver struct {
	mu sync.Mutex

	analyzeCalls int
	meshCalls    int

	lastPointReq solver.PointRequest
	lastMeshReq  solver.MeshRequest

	pointResult *solver.PointResult
	pointErr    error
	meshErr     error
}

func (s *stubSolver) Name() string { return "stub" }

func (s *stubSolver) AnalyzeAtCls(_ context.Context, req solver.PointRequest) (*solver.PointResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyzeCalls++
	s.lastPointReq = req
	if s.pointErr != nil {
		return nil, s.pointErr
	}
	if s.pointResult != nil {
		return s.pointResult, nil
	}
	n := len(req.Cl)
	res := &solver.PointResult{
		Alpha:  make([]float64, n),
		Cl:     make([]float64, n),
		Cd:     make([]float64, n),
		XTrTop: make([]float64, n),
		XTrBot: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		res.Alpha[i] = req.Cl[i] * 10
		res.Cl[i] = req.Cl[i]
		res.Cd[i] = 0.01
		res.XTrTop[i] = 0.7
		res.XTrBot[i] = 0.3
	}
	return res, nil
}

func (s *stubSolver) ComputeMesh(_ context.Context, req solver.MeshRequest) (*solver.MeshResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meshCalls++
	s.lastMeshReq = req
	if s.meshErr != nil {
		return nil, s.meshErr
	}
	blocks := make(map[float64]solver.MeshBlock, len(req.Re))
	for _, re := range req.Re {
		var alpha, cl, cd, top, bot []float64
		for a := req.AlphaMin; a <= req.AlphaMax+1e-9; a += req.AlphaStep {
			alpha = append(alpha, a)
			cl = append(cl, 0.1*a)
			// Linear in re, so bracket interpolation is exact and
			// checkable at any query point.
			cd = append(cd, 0.01+re*1e-9)
			top = append(top, re*1e-9)
			bot = append(bot, 0.5)
		}
		blocks[re] = solver.MeshBlock{Alpha: alpha, Cl: cl, Cd: cd, XTrTop: top, XTrBot: bot}
	}
	return &solver.MeshResult{Blocks: blocks}, nil
}

func testFoil(t *testing.T) *geom.Foil {
	t.Helper()
	f, err := geom.NACA("2412", 41)
	if err != nil {
		t.Fatalf("building test foil: %v", err)
	}
	return f
}

func targetPolar(n int) *polar.Polar {
	p := polar.New("targets", polar.Type2)
	p.Resize(n)
	for i := 0; i < n; i++ {
		p.Cl[i] = 0.1 * float64(i+1)
		p.Re[i] = 1e5 + 1e4*float64(i)
	}
	return p
}

func TestTaskInitRequiresPolar(t *testing.T) {
	task := NewTask(&stubSolver{})
	if err := task.Init(testFoil(t), nil); !errors.Is(err, ErrNoPolar) {
		t.Fatalf("expected ErrNoPolar, got %v", err)
	}
}

func TestProcessWithoutInit(t *testing.T) {
	task := NewTask(&stubSolver{})
	if err := task.ProcessClList(context.Background()); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestInitSnapshotsGeometry(t *testing.T) {
	stub := &stubSolver{}
	task := NewTask(stub)
	foil := testFoil(t)
	p := targetPolar(3)
	if err := task.Init(foil, p); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	// Mutating the live foil after Init must not leak into the request.
	orig := foil.X[0]
	foil.X[0] = 99
	if err := task.ProcessClList(context.Background()); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if stub.lastPointReq.X[0] != orig {
		t.Errorf("request saw mutated geometry: %g", stub.lastPointReq.X[0])
	}
}

func TestInitCopiesPolarParameters(t *testing.T) {
	stub := &stubSolver{}
	task := NewTask(stub)
	p := targetPolar(2)
	p.NCrit = 7.5
	p.XTripTop = 0.3
	p.XTripBot = 0.4
	if err := task.Init(testFoil(t), p); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	// Parameters are captured at Init time.
	p.NCrit = 1.0
	if err := task.ProcessClList(context.Background()); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	req := stub.lastPointReq
	if req.NCrit != 7.5 || req.XTripTop != 0.3 || req.XTripBot != 0.4 {
		t.Errorf("expected snapshotted parameters 7.5/0.3/0.4, got %g/%g/%g",
			req.NCrit, req.XTripTop, req.XTripBot)
	}
	if req.Mach != 0.0 {
		t.Errorf("expected mach 0, got %g", req.Mach)
	}
}

func TestProcessBuildsTargetsFromPolar(t *testing.T) {
	stub := &stubSolver{}
	task := NewTask(stub)
	p := targetPolar(3)
	if err := task.Init(testFoil(t), p); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if err := task.ProcessClList(context.Background()); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	req := stub.lastPointReq
	for i := 0; i < 3; i++ {
		if req.Cl[i] != p.Cl[i] || req.Re[i] != 1e5+1e4*float64(i) {
			t.Errorf("sample %d: targets not taken from polar columns", i)
		}
	}
}

func TestProcessPartialWriteBack(t *testing.T) {
	// A 5-row request answered with 3 rows writes exactly 3 rows.
	stub := &stubSolver{
		pointResult: &solver.PointResult{
			Cl:     []float64{0.11, 0.21, 0.31},
			Cd:     []float64{0.011, 0.012, 0.013},
			XTrTop: []float64{0.9, 0.8, 0.7},
			XTrBot: []float64{0.1, 0.2, 0.3},
		},
	}
	task := NewTask(stub)
	p := targetPolar(5)
	if err := task.Init(testFoil(t), p); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if err := task.ProcessClList(context.Background()); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if p.Cd[i] == 0 || !p.Converged[i] {
			t.Errorf("row %d should be written and converged", i)
		}
	}
	for i := 3; i < 5; i++ {
		if p.Cd[i] != 0 {
			t.Errorf("row %d Cd should be untouched, got %g", i, p.Cd[i])
		}
		if p.Converged[i] {
			t.Errorf("row %d should not be marked converged", i)
		}
		if p.Cl[i] != 0.1*float64(i+1) {
			t.Errorf("row %d target Cl should be untouched, got %g", i, p.Cl[i])
		}
	}
}

func TestProcessWritesAchievedValues(t *testing.T) {
	stub := &stubSolver{}
	task := NewTask(stub)
	p := targetPolar(2)
	if err := task.Init(testFoil(t), p); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if err := task.ProcessClList(context.Background()); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if p.Cd[0] != 0.01 || p.XTrTop[0] != 0.7 || p.XTrBot[0] != 0.3 {
		t.Errorf("result columns not written: cd=%g top=%g bot=%g",
			p.Cd[0], p.XTrTop[0], p.XTrBot[0])
	}
	if p.Alpha[1] != p.Cl[1]*10 {
		t.Errorf("alpha column not written from result, got %g", p.Alpha[1])
	}
	if !p.Converged[0] || !p.Converged[1] {
		t.Error("written rows must be marked converged")
	}
}

func TestProcessPropagatesSolverError(t *testing.T) {
	sentinel := errors.New("bridge down")
	stub := &stubSolver{pointErr: sentinel}
	task := NewTask(stub)
	p := targetPolar(2)
	if err := task.Init(testFoil(t), p); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if err := task.ProcessClList(context.Background()); !errors.Is(err, sentinel) {
		t.Fatalf("expected solver error to propagate, got %v", err)
	}
	if p.Converged[0] || p.Cd[0] != 0 {
		t.Error("polar must stay untouched on solver failure")
	}
}
