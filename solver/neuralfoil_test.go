package solver

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

// testBridge is a minimal bridge script with analytic placeholder
// aerodynamics, enough to exercise the marshalling round trip.
const testBridge = `package main

func AnalyzeFoilAtCls(x, y, cl, re []float64, nCrit, xtrTop, xtrBot, mach float64, modelSize string) map[string]interface{} {
	n := len(cl)
	alpha := make([]float64, n)
	outCl := make([]float64, n)
	cd := make([]float64, n)
	top := make([]float64, n)
	bot := make([]float64, n)
	for i := 0; i < n; i++ {
		alpha[i] = cl[i] * 10.0
		outCl[i] = cl[i]
		cd[i] = 0.01 + 0.001*cl[i]*cl[i]
		top[i] = 0.7
		bot[i] = 0.3
	}
	return map[string]interface{}{
		"success": true,
		"alpha":   alpha,
		"cl":      outCl,
		"cd":      cd,
		"xtr_top": top,
		"xtr_bot": bot,
	}
}

func ComputePolarMesh(x, y, re []float64, alphaMin, alphaMax, alphaStep, nCrit, xtrTop, xtrBot, mach float64, modelSize string) map[string]interface{} {
	polars := make(map[float64]map[string][]float64, len(re))
	for _, r := range re {
		alpha := []float64{}
		cl := []float64{}
		cd := []float64{}
		top := []float64{}
		bot := []float64{}
		for a := alphaMin; a <= alphaMax+1e-9; a += alphaStep {
			alpha = append(alpha, a)
			cl = append(cl, 0.1*a)
			cd = append(cd, 0.01+0.0001*a*a)
			top = append(top, 0.7)
			bot = append(bot, 0.3)
		}
		polars[r] = map[string][]float64{
			"alpha":   alpha,
			"cl":      cl,
			"cd":      cd,
			"xtr_top": top,
			"xtr_bot": bot,
		}
	}
	return map[string]interface{}{
		"success": true,
		"polars":  polars,
	}
}
`

func testGeometry() ([]float64, []float64) {
	return []float64{1, 0, 1}, []float64{0.01, 0, -0.01}
}

func testSolver() *NeuralFoilSolver {
	return NewNeuralFoil().Source(testBridge).Build()
}

func TestAnalyzeAtClsRoundTrip(t *testing.T) {
	s := testSolver()
	x, y := testGeometry()
	res, err := s.AnalyzeAtCls(context.Background(), PointRequest{
		X: x, Y: y,
		Cl:    []float64{0.2, 0.5},
		Re:    []float64{1e5, 1e5},
		NCrit: 9.0, XTripTop: 1.0, XTripBot: 1.0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Cd) != 2 || len(res.Cl) != 2 {
		t.Fatalf("expected 2 result rows, got cd=%d cl=%d", len(res.Cd), len(res.Cl))
	}
	if math.Abs(res.Cd[0]-0.01004) > 1e-9 {
		t.Errorf("expected cd[0] 0.01004, got %g", res.Cd[0])
	}
	if math.Abs(res.Alpha[1]-5.0) > 1e-9 {
		t.Errorf("expected alpha[1] 5.0, got %g", res.Alpha[1])
	}
	if !s.Ready() {
		t.Error("solver should report ready after a successful call")
	}
}

func TestComputeMeshBlocks(t *testing.T) {
	s := testSolver()
	x, y := testGeometry()
	res, err := s.ComputeMesh(context.Background(), MeshRequest{
		X: x, Y: y,
		Re:       []float64{1e5, 5e5},
		AlphaMin: -2, AlphaMax: 2, AlphaStep: 1,
		NCrit: 9.0, XTripTop: 1.0, XTripBot: 1.0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(res.Blocks))
	}
	block, ok := res.Blocks[1e5]
	if !ok {
		t.Fatal("missing block for re=1e5")
	}
	if len(block.Alpha) != 5 {
		t.Fatalf("expected 5 alpha samples, got %d", len(block.Alpha))
	}
	if math.Abs(block.Cl[0]+0.2) > 1e-9 {
		t.Errorf("expected cl[0] -0.2, got %g", block.Cl[0])
	}
}

func TestRequestValidationPrecedesInit(t *testing.T) {
	// Broken source never gets evaluated when the request is rejected
	// up front.
	s := NewNeuralFoil().Source("this is not go").Build()
	_, err := s.AnalyzeAtCls(context.Background(), PointRequest{
		X: []float64{1, 0}, Y: []float64{0, 0, 0},
		Cl: []float64{0.5}, Re: []float64{1e5},
	})
	if err == nil {
		t.Fatal("expected geometry validation error")
	}
	if errors.Is(err, ErrNotReady) {
		t.Errorf("validation should fail before runtime init, got %v", err)
	}

	x, y := testGeometry()
	_, err = s.AnalyzeAtCls(context.Background(), PointRequest{
		X: x, Y: y,
		Cl: []float64{0.5, 0.6}, Re: []float64{1e5},
	})
	if err == nil || errors.Is(err, ErrNotReady) {
		t.Errorf("expected cl/re mismatch error before init, got %v", err)
	}
}

func TestSolverReportedFailure(t *testing.T) {
	src := `package main

func AnalyzeFoilAtCls(x, y, cl, re []float64, nCrit, xtrTop, xtrBot, mach float64, modelSize string) map[string]interface{} {
	return map[string]interface{}{"success": false, "error": "model rejected geometry"}
}

func ComputePolarMesh(x, y, re []float64, alphaMin, alphaMax, alphaStep, nCrit, xtrTop, xtrBot, mach float64, modelSize string) map[string]interface{} {
	return map[string]interface{}{"success": false, "error": "model rejected geometry"}
}
`
	s := NewNeuralFoil().Source(src).Build()
	x, y := testGeometry()
	_, err := s.AnalyzeAtCls(context.Background(), PointRequest{
		X: x, Y: y, Cl: []float64{0.5}, Re: []float64{1e5},
	})
	if !errors.Is(err, ErrSolverFailed) {
		t.Fatalf("expected ErrSolverFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "model rejected geometry") {
		t.Errorf("expected bridge diagnostic in error, got %v", err)
	}
}

func TestBridgePanicBecomesError(t *testing.T) {
	src := `package main

func AnalyzeFoilAtCls(x, y, cl, re []float64, nCrit, xtrTop, xtrBot, mach float64, modelSize string) map[string]interface{} {
	panic("interpreter boom")
}

func ComputePolarMesh(x, y, re []float64, alphaMin, alphaMax, alphaStep, nCrit, xtrTop, xtrBot, mach float64, modelSize string) map[string]interface{} {
	return map[string]interface{}{"success": true, "polars": map[float64]map[string][]float64{}}
}
`
	s := NewNeuralFoil().Source(src).Build()
	x, y := testGeometry()
	_, err := s.AnalyzeAtCls(context.Background(), PointRequest{
		X: x, Y: y, Cl: []float64{0.5}, Re: []float64{1e5},
	})
	if !errors.Is(err, ErrBridgeCall) {
		t.Fatalf("expected ErrBridgeCall for a bridge panic, got %v", err)
	}

	// The runtime survives a panicking call.
	res, err := s.ComputeMesh(context.Background(), MeshRequest{
		X: x, Y: y, Re: []float64{1e5},
		AlphaMin: 0, AlphaMax: 1, AlphaStep: 1,
	})
	if err != nil {
		t.Fatalf("solver unusable after bridge panic: %v", err)
	}
	if res.Blocks == nil {
		t.Error("expected empty block map, got nil")
	}
}

func TestInitFailureIsSticky(t *testing.T) {
	root := t.TempDir()
	s := NewNeuralFoil().BridgeRoot(root).Build()
	x, y := testGeometry()
	req := PointRequest{X: x, Y: y, Cl: []float64{0.5}, Re: []float64{1e5}}

	_, err := s.AnalyzeAtCls(context.Background(), req)
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady with no bridge script, got %v", err)
	}

	// Installing the script afterwards must not help: the failure is
	// latched for the lifetime of the solver instance.
	scriptDir := filepath.Join(root, "bridge")
	if err := os.MkdirAll(scriptDir, 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(scriptDir, "neuralfoil_bridge.go"), []byte(testBridge), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	_, err = s.AnalyzeAtCls(context.Background(), req)
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected sticky ErrNotReady, got %v", err)
	}
	if s.Ready() {
		t.Error("failed solver must not report ready")
	}
}

func TestScriptLoadedOnceFromBridgeRoot(t *testing.T) {
	root := t.TempDir()
	scriptDir := filepath.Join(root, "bridge")
	if err := os.MkdirAll(scriptDir, 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	scriptPath := filepath.Join(scriptDir, "neuralfoil_bridge.go")
	if err := os.WriteFile(scriptPath, []byte(testBridge), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	s := NewNeuralFoil().BridgeRoot(root).Build()
	x, y := testGeometry()
	req := PointRequest{X: x, Y: y, Cl: []float64{0.5}, Re: []float64{1e5}}
	if _, err := s.AnalyzeAtCls(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Removing the script must not matter: the runtime is already up
	// and is never reloaded.
	if err := os.Remove(scriptPath); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := s.AnalyzeAtCls(context.Background(), req); err != nil {
		t.Fatalf("expected call to succeed from the live runtime: %v", err)
	}
}

func TestWrongEntrySignature(t *testing.T) {
	src := `package main

func AnalyzeFoilAtCls(x []float64) map[string]interface{} {
	return map[string]interface{}{"success": true}
}
`
	s := NewNeuralFoil().Source(src).Build()
	x, y := testGeometry()
	_, err := s.AnalyzeAtCls(context.Background(), PointRequest{
		X: x, Y: y, Cl: []float64{0.5}, Re: []float64{1e5},
	})
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady for wrong entry signature, got %v", err)
	}
}

func TestConcurrentFirstCall(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := testSolver()
	x, y := testGeometry()

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := s.AnalyzeAtCls(context.Background(), PointRequest{
				X: x, Y: y, Cl: []float64{0.3}, Re: []float64{2e5},
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent first calls failed: %v", err)
	}
	if !s.Ready() {
		t.Error("solver should be ready after concurrent initialization")
	}
}

func TestModelSizeDefaultReachesBridge(t *testing.T) {
	// The bridge reports the tier it was handed through the failure
	// message, making the selection observable.
	src := `package main

func AnalyzeFoilAtCls(x, y, cl, re []float64, nCrit, xtrTop, xtrBot, mach float64, modelSize string) map[string]interface{} {
	return map[string]interface{}{"success": false, "error": "tier=" + modelSize}
}

func ComputePolarMesh(x, y, re []float64, alphaMin, alphaMax, alphaStep, nCrit, xtrTop, xtrBot, mach float64, modelSize string) map[string]interface{} {
	return map[string]interface{}{"success": false, "error": "tier=" + modelSize}
}
`
	s := NewNeuralFoil().Source(src).DefaultSize(ModelSmall).Build()
	x, y := testGeometry()
	req := PointRequest{X: x, Y: y, Cl: []float64{0.5}, Re: []float64{1e5}}

	_, err := s.AnalyzeAtCls(context.Background(), req)
	if err == nil || !strings.Contains(err.Error(), "tier=small") {
		t.Errorf("expected solver default tier, got %v", err)
	}

	req.ModelSize = ModelXXLarge
	_, err = s.AnalyzeAtCls(context.Background(), req)
	if err == nil || !strings.Contains(err.Error(), "tier=xxlarge") {
		t.Errorf("expected explicit tier to win, got %v", err)
	}
}

func TestContextCancelledBeforeCall(t *testing.T) {
	s := testSolver()
	x, y := testGeometry()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.AnalyzeAtCls(ctx, PointRequest{
		X: x, Y: y, Cl: []float64{0.5}, Re: []float64{1e5},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
