// Command execution for CLI commands.
//
// Information Hiding:
// - Settings and logger assembly hidden
// - Solver and store construction hidden
// - Output formatting hidden

package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"aeropolar/analysis"
	"aeropolar/api"
	"aeropolar/config"
	"aeropolar/geom"
	"aeropolar/internal/logging"
	"aeropolar/polar"
	"aeropolar/solver"
	"aeropolar/storage"
)

// Options carries the global CLI flags into every command body.
type Options struct {
	ConfigFile string
	BridgeRoot string
	ModelSize  string
	Verbose    bool
}

// setup resolves settings and builds the logger shared by all commands.
// Flags override both the config file and the environment.
func setup(opts Options) (config.Settings, *zap.Logger, error) {
	settings, err := config.Load(opts.ConfigFile)
	if err != nil {
		return config.Settings{}, nil, err
	}
	if opts.BridgeRoot != "" {
		settings.Bridge.Root = opts.BridgeRoot
	}
	if opts.ModelSize != "" {
		m, err := solver.ParseModelSize(opts.ModelSize)
		if err != nil {
			return config.Settings{}, nil, err
		}
		settings.Bridge.ModelSize = m
	}

	logger, err := logging.New(settings.LogLevel, opts.Verbose)
	if err != nil {
		return config.Settings{}, nil, err
	}
	return settings, logger, nil
}

func buildSolver(settings config.Settings, logger *zap.Logger) *solver.NeuralFoilSolver {
	return solver.NewNeuralFoil().
		BridgeRoot(settings.Bridge.Root).
		DefaultSize(settings.Bridge.ModelSize).
		Logger(logger.Named("neuralfoil")).
		Build()
}

// GenerateFoil builds a NACA section and writes it as a Selig .dat file.
func GenerateFoil(digits string, nPoints int, outPath string) error {
	f, err := geom.NACA(digits, nPoints)
	if err != nil {
		return err
	}
	if err := f.Save(outPath); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d points, t/c=%.1f%%) to %s\n",
		f.Name, f.N(), 100*f.MaxThickness(), outPath)
	return nil
}

// AnalyzeOptions configures a single-shot point analysis. The pointer
// fields distinguish an explicit value, zero included, from "use the
// configured default".
type AnalyzeOptions struct {
	FoilPath string
	Cl       []float64
	Re       []float64 // one value, or one per cl target
	NCrit    *float64
	XTrTop   *float64
	XTrBot   *float64
}

// Analyze runs the foil at a list of target lift coefficients and
// prints the resulting table.
func Analyze(ctx context.Context, aOpts AnalyzeOptions, opts Options) error {
	settings, logger, err := setup(opts)
	if err != nil {
		return err
	}
	defer logger.Sync()

	f, err := geom.Load(aOpts.FoilPath)
	if err != nil {
		return err
	}
	if len(aOpts.Cl) == 0 {
		return errors.New("at least one --cl target is required")
	}
	re := aOpts.Re
	switch len(re) {
	case len(aOpts.Cl):
	case 1:
		re = make([]float64, len(aOpts.Cl))
		for i := range re {
			re[i] = aOpts.Re[0]
		}
	default:
		return fmt.Errorf("need one --re value or one per --cl target, got %d", len(aOpts.Re))
	}

	p := polar.New(fmt.Sprintf("%s targets", f.Name), polar.Type2)
	p.NCrit = floatOr(aOpts.NCrit, settings.Bridge.NCrit)
	p.XTripTop = floatOr(aOpts.XTrTop, settings.Bridge.XTripTop)
	p.XTripBot = floatOr(aOpts.XTrBot, settings.Bridge.XTripBot)
	p.Resize(len(aOpts.Cl))
	copy(p.Cl, aOpts.Cl)
	copy(p.Re, re)

	task := analysis.NewTask(buildSolver(settings, logger)).
		WithLogger(logger.Named("task")).
		WithModelSize(settings.Bridge.ModelSize)
	if err := task.Init(f, p); err != nil {
		return err
	}
	if err := task.ProcessClList(ctx); err != nil {
		return err
	}

	fmt.Print(p.ExportString())
	return nil
}

// MeshOptions configures mesh generation for one or more foils. As in
// AnalyzeOptions, nil analysis parameters select the configured
// defaults while an explicit zero is passed through.
type MeshOptions struct {
	FoilPaths []string
	ReMin     float64
	ReMax     float64
	AlphaMin  float64
	AlphaMax  float64
	NCrit     *float64
	XTrTop    *float64
	XTrBot    *float64
	Save      bool
	DBPath    string // empty selects the configured database
}

// BuildMesh generates polar meshes for the given foils, concurrently
// when more than one is given, and optionally persists them.
func BuildMesh(ctx context.Context, mOpts MeshOptions, opts Options) error {
	settings, logger, err := setup(opts)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if len(mOpts.FoilPaths) == 0 {
		return errors.New("at least one foil file is required")
	}
	foils := make([]*geom.Foil, 0, len(mOpts.FoilPaths))
	for _, path := range mOpts.FoilPaths {
		f, err := geom.Load(path)
		if err != nil {
			return err
		}
		foils = append(foils, f)
	}

	spec := analysis.MeshSpec{
		ReMin:     mOpts.ReMin,
		ReMax:     mOpts.ReMax,
		AlphaMin:  mOpts.AlphaMin,
		AlphaMax:  mOpts.AlphaMax,
		NCrit:     floatOr(mOpts.NCrit, settings.Bridge.NCrit),
		XTripTop:  floatOr(mOpts.XTrTop, settings.Bridge.XTripTop),
		XTripBot:  floatOr(mOpts.XTrBot, settings.Bridge.XTripBot),
		ModelSize: settings.Bridge.ModelSize,
	}

	sv := buildSolver(settings, logger)
	caches, err := analysis.GenerateMeshes(ctx, sv, foils, spec, logger.Named("meshcache"))
	if err != nil {
		return err
	}

	var store *storage.MeshStore
	if mOpts.Save {
		dbPath := mOpts.DBPath
		if dbPath == "" {
			dbPath = settings.Cache.DatabasePath
		}
		store, err = storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	for i, cache := range caches {
		f := foils[i]
		fmt.Printf("%s: %d polars, Re %.4g..%.4g, alpha %.4g..%.4g\n",
			f.Name, cache.Len(), mOpts.ReMin, mOpts.ReMax, mOpts.AlphaMin, mOpts.AlphaMax)
		if store != nil {
			id, err := store.SaveMesh(ctx, f.Name, cache.Fingerprint(), spec, cache.Polars())
			if err != nil {
				return err
			}
			fmt.Printf("  saved as mesh %s\n", id)
		}
	}
	return nil
}

// QueryOptions configures a stored-mesh interpolation query.
type QueryOptions struct {
	FoilName string
	Re       float64
	Cl       float64
	DBPath   string
}

// Query loads a stored mesh and interpolates drag and transition
// locations at the requested operating point.
func Query(ctx context.Context, qOpts QueryOptions, opts Options) error {
	settings, logger, err := setup(opts)
	if err != nil {
		return err
	}
	defer logger.Sync()

	dbPath := qOpts.DBPath
	if dbPath == "" {
		dbPath = settings.Cache.DatabasePath
	}
	store, err := storage.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	mesh, err := store.FindByFoil(ctx, qOpts.FoilName)
	if err != nil {
		return err
	}

	cache := analysis.NewQueryCache().WithLogger(logger.Named("meshcache"))
	cache.Restore(mesh.Meta.Fingerprint, mesh.Polars)

	pt, err := cache.PointFromCl(qOpts.Re, qOpts.Cl)
	if err != nil {
		return err
	}
	fmt.Printf("%s at Re=%.4g Cl=%.4g:\n", qOpts.FoilName, qOpts.Re, qOpts.Cl)
	fmt.Printf("  Cd     = %.6f\n", pt.Cd)
	fmt.Printf("  XTrTop = %.4f\n", pt.XTrTop)
	fmt.Printf("  XTrBot = %.4f\n", pt.XTrBot)
	return nil
}

// ServeOptions configures the API server command.
type ServeOptions struct {
	Addr string // empty selects the configured listen address
}

// Serve runs the HTTP API until the context is cancelled.
func Serve(ctx context.Context, sOpts ServeOptions, opts Options) error {
	settings, logger, err := setup(opts)
	if err != nil {
		return err
	}
	defer logger.Sync()

	addr := sOpts.Addr
	if addr == "" {
		addr = settings.Server.ListenAddr
	}

	server := api.NewServer(buildSolver(settings, logger), settings, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

// floatOr returns *v, or def when v is nil. A pointer rather than a
// zero sentinel, so forcing transition at x=0 stays expressible.
func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
