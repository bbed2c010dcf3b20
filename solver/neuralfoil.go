package solver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"
)

// Bridge entry points resolved from the interpreted script.
const (
	analyzeEntry = "main.AnalyzeFoilAtCls"
	meshEntry    = "main.ComputePolarMesh"
)

// Signatures the bridge script must export. Declared as aliases so the
// type assertions below match the interpreter's unnamed function types.
type (
	analyzeFunc = func(x, y, cl, re []float64, nCrit, xtrTop, xtrBot, mach float64, modelSize string) map[string]interface{}
	meshFunc    = func(x, y, re []float64, alphaMin, alphaMax, alphaStep, nCrit, xtrTop, xtrBot, mach float64, modelSize string) map[string]interface{}
)

// NeuralFoilSolver calls the NeuralFoil bridge script inside an embedded
// Go interpreter. The interpreter is created lazily on the first call
// and lives as long as the solver; a failed initialization is sticky,
// so a solver that could not start its runtime fails every call with
// ErrNotReady rather than retrying.
//
// All exported methods are safe for concurrent use: initialization runs
// at most once, and entry into the interpreter is serialized so two
// analyses never execute interpreted code at the same time.
type NeuralFoilSolver struct {
	root    string
	source  string
	defSize ModelSize
	logger  *zap.Logger

	initOnce sync.Once
	initErr  error
	ready    atomic.Bool

	// evalMu serializes calls into the interpreter. Distinct from
	// initOnce: one protects runtime creation, the other each call.
	evalMu sync.Mutex

	analyze analyzeFunc
	mesh    meshFunc
}

// NeuralFoilBuilder configures a NeuralFoilSolver.
type NeuralFoilBuilder struct {
	root    string
	source  string
	defSize ModelSize
	logger  *zap.Logger
}

// NewNeuralFoil starts configuring a NeuralFoil solver.
func NewNeuralFoil() *NeuralFoilBuilder {
	return &NeuralFoilBuilder{}
}

// BridgeRoot sets the bridge installation directory. The interpreter's
// GOPATH is <root>/gopath and the bridge script is expected at
// <root>/bridge/neuralfoil_bridge.go. Defaults to ~/.aeropolar.
func (b *NeuralFoilBuilder) BridgeRoot(dir string) *NeuralFoilBuilder {
	b.root = dir
	return b
}

// Source supplies the bridge script source directly instead of loading
// it from the bridge root.
func (b *NeuralFoilBuilder) Source(src string) *NeuralFoilBuilder {
	b.source = src
	return b
}

// DefaultSize sets the model tier used by requests that leave ModelSize
// unset.
func (b *NeuralFoilBuilder) DefaultSize(m ModelSize) *NeuralFoilBuilder {
	b.defSize = m
	return b
}

// Logger sets the logger. Defaults to a no-op logger.
func (b *NeuralFoilBuilder) Logger(lg *zap.Logger) *NeuralFoilBuilder {
	b.logger = lg
	return b
}

// Build assembles the solver. The runtime itself is not started until
// the first call that needs it.
func (b *NeuralFoilBuilder) Build() *NeuralFoilSolver {
	s := &NeuralFoilSolver{
		root:    b.root,
		source:  b.source,
		defSize: b.defSize,
		logger:  b.logger,
	}
	if s.defSize == 0 {
		s.defSize = DefaultModelSize
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// FromEnv builds the solver, filling unset fields from the environment:
// AEROPOLAR_BRIDGE_ROOT for the bridge root and AEROPOLAR_MODEL_SIZE
// for the default tier. An unparseable model size is an error.
func (b *NeuralFoilBuilder) FromEnv() (*NeuralFoilSolver, error) {
	if b.root == "" {
		b.root = os.Getenv("AEROPOLAR_BRIDGE_ROOT")
	}
	if b.defSize == 0 {
		if v := os.Getenv("AEROPOLAR_MODEL_SIZE"); v != "" {
			m, err := ParseModelSize(v)
			if err != nil {
				return nil, fmt.Errorf("AEROPOLAR_MODEL_SIZE: %w", err)
			}
			b.defSize = m
		}
	}
	return b.Build(), nil
}

// Name returns the solver name.
func (s *NeuralFoilSolver) Name() string {
	return "neuralfoil"
}

// Ready reports whether the runtime has initialized successfully. It
// does not trigger initialization.
func (s *NeuralFoilSolver) Ready() bool {
	return s.ready.Load()
}

// EnsureReady initializes the runtime if it has not been started yet.
// Safe to call from multiple goroutines; exactly one initialization
// runs, and every caller observes its outcome.
func (s *NeuralFoilSolver) EnsureReady(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.initOnce.Do(s.initRuntime)
	if s.initErr != nil {
		return fmt.Errorf("%w: %v", ErrNotReady, s.initErr)
	}
	return nil
}

func (s *NeuralFoilSolver) initRuntime() {
	root := s.root
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			s.initErr = fmt.Errorf("resolving default bridge root: %w", err)
			return
		}
		root = filepath.Join(home, ".aeropolar")
	}
	gopath := filepath.Join(root, "gopath")

	src := s.source
	scriptPath := "<inline>"
	if src == "" {
		scriptPath = filepath.Join(root, "bridge", "neuralfoil_bridge.go")
		data, err := os.ReadFile(scriptPath)
		if err != nil {
			s.initErr = fmt.Errorf("loading bridge script: %w", err)
			return
		}
		src = string(data)
	}

	s.logger.Info("initializing bridge runtime",
		zap.String("gopath", gopath),
		zap.String("script", scriptPath),
	)

	i := interp.New(interp.Options{GoPath: gopath})
	if err := i.Use(stdlib.Symbols); err != nil {
		s.initErr = fmt.Errorf("loading interpreter stdlib: %w", err)
		return
	}
	if _, err := i.Eval(wrapBridgeSource(src)); err != nil {
		s.initErr = fmt.Errorf("evaluating bridge script: %w", err)
		return
	}

	av, err := i.Eval(analyzeEntry)
	if err != nil {
		s.initErr = fmt.Errorf("%s not found in bridge script: %w", analyzeEntry, err)
		return
	}
	analyze, ok := av.Interface().(analyzeFunc)
	if !ok {
		s.initErr = fmt.Errorf("%s has the wrong signature", analyzeEntry)
		return
	}

	mv, err := i.Eval(meshEntry)
	if err != nil {
		s.initErr = fmt.Errorf("%s not found in bridge script: %w", meshEntry, err)
		return
	}
	mesh, ok := mv.Interface().(meshFunc)
	if !ok {
		s.initErr = fmt.Errorf("%s has the wrong signature", meshEntry)
		return
	}

	s.analyze = analyze
	s.mesh = mesh
	s.ready.Store(true)
	s.logger.Info("bridge runtime ready")
}

// wrapBridgeSource prepends a package clause when the script omits one.
func wrapBridgeSource(src string) string {
	if strings.Contains(src, "package main") {
		return src
	}
	return "package main\n\n" + src
}

// AnalyzeAtCls evaluates the foil at the request's target lift
// coefficients. The returned arrays may be shorter than the request;
// see PointResult.
func (s *NeuralFoilSolver) AnalyzeAtCls(ctx context.Context, req PointRequest) (*PointResult, error) {
	if err := validateGeometry(req.X, req.Y); err != nil {
		return nil, err
	}
	if len(req.Cl) != len(req.Re) {
		return nil, fmt.Errorf("cl/re length mismatch: %d vs %d", len(req.Cl), len(req.Re))
	}
	if err := s.EnsureReady(ctx); err != nil {
		return nil, err
	}

	size := req.ModelSize
	if size == 0 {
		size = s.defSize
	}
	out, err := s.callBridge(ctx, func() map[string]interface{} {
		return s.analyze(req.X, req.Y, req.Cl, req.Re,
			req.NCrit, req.XTripTop, req.XTripBot, req.Mach, size.String())
	})
	if err != nil {
		return nil, err
	}
	if err := checkSuccess(out); err != nil {
		return nil, err
	}

	res := &PointResult{Alpha: optionalFloatField(out, "alpha")}
	if res.Cl, err = floatField(out, "cl"); err != nil {
		return nil, err
	}
	if res.Cd, err = floatField(out, "cd"); err != nil {
		return nil, err
	}
	if res.XTrTop, err = floatField(out, "xtr_top"); err != nil {
		return nil, err
	}
	if res.XTrBot, err = floatField(out, "xtr_bot"); err != nil {
		return nil, err
	}
	return res, nil
}

// ComputeMesh runs the bulk angle sweep at every requested Reynolds
// number in one bridge call.
func (s *NeuralFoilSolver) ComputeMesh(ctx context.Context, req MeshRequest) (*MeshResult, error) {
	if err := validateGeometry(req.X, req.Y); err != nil {
		return nil, err
	}
	if len(req.Re) == 0 {
		return nil, fmt.Errorf("mesh request has no reynolds numbers")
	}
	if req.AlphaStep <= 0 {
		return nil, fmt.Errorf("mesh request has non-positive alpha step %g", req.AlphaStep)
	}
	if err := s.EnsureReady(ctx); err != nil {
		return nil, err
	}

	size := req.ModelSize
	if size == 0 {
		size = s.defSize
	}
	out, err := s.callBridge(ctx, func() map[string]interface{} {
		return s.mesh(req.X, req.Y, req.Re,
			req.AlphaMin, req.AlphaMax, req.AlphaStep,
			req.NCrit, req.XTripTop, req.XTripBot, req.Mach, size.String())
	})
	if err != nil {
		return nil, err
	}
	if err := checkSuccess(out); err != nil {
		return nil, err
	}

	raw, ok := out["polars"].(map[float64]map[string][]float64)
	if !ok {
		return nil, fmt.Errorf("%w: result field \"polars\" is %T", ErrBridgeCall, out["polars"])
	}
	blocks := make(map[float64]MeshBlock, len(raw))
	for re, fields := range raw {
		block := MeshBlock{
			Alpha:  fields["alpha"],
			Cl:     fields["cl"],
			Cd:     fields["cd"],
			XTrTop: fields["xtr_top"],
			XTrBot: fields["xtr_bot"],
		}
		if block.Cl == nil || block.Cd == nil {
			return nil, fmt.Errorf("%w: mesh block re=%g is missing cl/cd arrays", ErrBridgeCall, re)
		}
		blocks[re] = block
	}
	return &MeshResult{Blocks: blocks}, nil
}

// callBridge runs one call into the interpreter under the call lock,
// converting interpreted panics into ErrBridgeCall. The interpreted
// call itself is not interruptible; ctx is only observed on entry.
func (s *NeuralFoilSolver) callBridge(ctx context.Context, call func() map[string]interface{}) (out map[string]interface{}, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.evalMu.Lock()
	defer s.evalMu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: panic in bridge: %v", ErrBridgeCall, r)
		}
	}()
	return call(), nil
}

func validateGeometry(x, y []float64) error {
	if len(x) != len(y) {
		return fmt.Errorf("geometry length mismatch: %d x values, %d y values", len(x), len(y))
	}
	if len(x) < 3 {
		return fmt.Errorf("geometry has too few points: %d", len(x))
	}
	return nil
}

func checkSuccess(out map[string]interface{}) error {
	success, ok := out["success"].(bool)
	if !ok {
		return fmt.Errorf("%w: result has no boolean success field", ErrBridgeCall)
	}
	if !success {
		msg, _ := out["error"].(string)
		if msg == "" {
			msg = "no diagnostic provided"
		}
		return fmt.Errorf("%w: %s", ErrSolverFailed, msg)
	}
	return nil
}

func floatField(out map[string]interface{}, key string) ([]float64, error) {
	v, ok := out[key]
	if !ok {
		return nil, fmt.Errorf("%w: result is missing %q", ErrBridgeCall, key)
	}
	arr, ok := v.([]float64)
	if !ok {
		return nil, fmt.Errorf("%w: result field %q is %T, want []float64", ErrBridgeCall, key, v)
	}
	return arr, nil
}

func optionalFloatField(out map[string]interface{}, key string) []float64 {
	arr, _ := out[key].([]float64)
	return arr
}
