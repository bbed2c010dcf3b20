package analysis

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"aeropolar/geom"
	"aeropolar/solver"
)

// GenerateMeshes builds one mesh cache per foil with a shared spec.
// Generations run concurrently; the solver serializes the actual bridge
// calls internally, so concurrency here overlaps marshalling and table
// materialization rather than solver time. The returned slice is
// aligned with foils. The first failure cancels the remaining work and
// is returned; no partial result is kept.
func GenerateMeshes(ctx context.Context, sv solver.Solver, foils []*geom.Foil, spec MeshSpec, lg *zap.Logger) ([]*PolarMeshCache, error) {
	if lg == nil {
		lg = zap.NewNop()
	}
	caches := make([]*PolarMeshCache, len(foils))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, f := range foils {
		i, f := i, f
		eg.Go(func() error {
			cache := NewPolarMeshCache(sv).WithLogger(lg)
			if err := cache.GenerateMesh(egCtx, f, spec); err != nil {
				return err
			}
			caches[i] = cache
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return caches, nil
}
