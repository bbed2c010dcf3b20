package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"aeropolar/analysis"
	"aeropolar/geom"
	"aeropolar/polar"
	"aeropolar/solver"
)

// Request and response shapes. Optional analysis parameters are
// pointers so "absent" falls back to the configured defaults.

type createFoilRequest struct {
	Name    string    `json:"name"`
	NACA    string    `json:"naca,omitempty"`
	NPoints int       `json:"n_points,omitempty"`
	X       []float64 `json:"x,omitempty"`
	Y       []float64 `json:"y,omitempty"`
}

type foilResponse struct {
	Name         string  `json:"name"`
	NPoints      int     `json:"n_points"`
	MaxThickness float64 `json:"max_thickness"`
	MaxCamber    float64 `json:"max_camber"`
	HasMesh      bool    `json:"has_mesh"`
}

type meshRequest struct {
	ReMin     float64  `json:"re_min"`
	ReMax     float64  `json:"re_max"`
	AlphaMin  float64  `json:"alpha_min"`
	AlphaMax  float64  `json:"alpha_max"`
	NCrit     *float64 `json:"ncrit,omitempty"`
	XTrTop    *float64 `json:"xtr_top,omitempty"`
	XTrBot    *float64 `json:"xtr_bot,omitempty"`
	ModelSize string   `json:"model_size,omitempty"`
}

type meshResponse struct {
	CacheHit bool    `json:"cache_hit"`
	Polars   int     `json:"polars"`
	ReMin    float64 `json:"re_min"`
	ReMax    float64 `json:"re_max"`
	AlphaMin float64 `json:"alpha_min"`
	AlphaMax float64 `json:"alpha_max"`
}

type pointResponse struct {
	Cd     float64 `json:"cd"`
	XTrTop float64 `json:"xtr_top"`
	XTrBot float64 `json:"xtr_bot"`
}

type analyzeRequest struct {
	Cl        []float64 `json:"cl"`
	Re        []float64 `json:"re"`
	NCrit     *float64  `json:"ncrit,omitempty"`
	XTrTop    *float64  `json:"xtr_top,omitempty"`
	XTrBot    *float64  `json:"xtr_bot,omitempty"`
	ModelSize string    `json:"model_size,omitempty"`
}

type analyzeRow struct {
	Alpha     float64 `json:"alpha"`
	Cl        float64 `json:"cl"`
	Cd        float64 `json:"cd"`
	XTrTop    float64 `json:"xtr_top"`
	XTrBot    float64 `json:"xtr_bot"`
	Converged bool    `json:"converged"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func jsonError(c echo.Context, status int, format string, args ...interface{}) error {
	return c.JSON(status, errorResponse{Error: fmt.Sprintf(format, args...)})
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"solver": s.solver.Name(),
	})
}

func (s *Server) createFoil(c echo.Context) error {
	var req createFoilRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body: %v", err)
	}
	if req.Name == "" {
		return jsonError(c, http.StatusBadRequest, "foil name is required")
	}

	var f *geom.Foil
	var err error
	switch {
	case req.NACA != "":
		nPoints := req.NPoints
		if nPoints == 0 {
			nPoints = 81
		}
		f, err = geom.NACA(req.NACA, nPoints)
		if err != nil {
			return jsonError(c, http.StatusBadRequest, "%v", err)
		}
		f.Name = req.Name
	case len(req.X) > 0:
		f, err = geom.NewFoil(req.Name, req.X, req.Y)
		if err != nil {
			return jsonError(c, http.StatusBadRequest, "%v", err)
		}
	default:
		return jsonError(c, http.StatusBadRequest, "either naca digits or x/y coordinates are required")
	}

	if err := s.registry.Register(f); err != nil {
		return jsonError(c, http.StatusConflict, "%v", err)
	}
	s.logger.Info("foil registered",
		zap.String("foil", f.Name),
		zap.Int("points", f.N()),
	)
	return c.JSON(http.StatusCreated, s.foilResponse(f))
}

func (s *Server) listFoils(c echo.Context) error {
	names := s.registry.Names()
	foils := make([]foilResponse, 0, len(names))
	for _, name := range names {
		if f, ok := s.registry.Foil(name); ok {
			foils = append(foils, s.foilResponse(f))
		}
	}
	return c.JSON(http.StatusOK, foils)
}

func (s *Server) getFoil(c echo.Context) error {
	f, ok := s.registry.Foil(c.Param("name"))
	if !ok {
		return jsonError(c, http.StatusNotFound, "foil '%s' not registered", c.Param("name"))
	}
	return c.JSON(http.StatusOK, s.foilResponse(f))
}

func (s *Server) deleteFoil(c echo.Context) error {
	if !s.registry.Remove(c.Param("name")) {
		return jsonError(c, http.StatusNotFound, "foil '%s' not registered", c.Param("name"))
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) foilResponse(f *geom.Foil) foilResponse {
	hasMesh := false
	s.registry.ReadMesh(f.Name, func(mesh *analysis.PolarMeshCache) error {
		hasMesh = mesh != nil && mesh.Len() > 0
		return nil
	})
	return foilResponse{
		Name:         f.Name,
		NPoints:      f.N(),
		MaxThickness: f.MaxThickness(),
		MaxCamber:    f.MaxCamber(),
		HasMesh:      hasMesh,
	}
}

func (s *Server) generateMesh(c echo.Context) error {
	name := c.Param("name")
	f, ok := s.registry.Foil(name)
	if !ok {
		return jsonError(c, http.StatusNotFound, "foil '%s' not registered", name)
	}

	var req meshRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body: %v", err)
	}
	if req.ReMin <= 0 || req.ReMax < req.ReMin {
		return jsonError(c, http.StatusBadRequest, "invalid reynolds range [%g, %g]", req.ReMin, req.ReMax)
	}
	if req.AlphaMax < req.AlphaMin {
		return jsonError(c, http.StatusBadRequest, "invalid alpha range [%g, %g]", req.AlphaMin, req.AlphaMax)
	}
	size, err := s.modelSize(req.ModelSize)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "%v", err)
	}

	spec := analysis.MeshSpec{
		ReMin:     req.ReMin,
		ReMax:     req.ReMax,
		AlphaMin:  req.AlphaMin,
		AlphaMax:  req.AlphaMax,
		NCrit:     s.floatOrDefault(req.NCrit, s.settings.Bridge.NCrit),
		XTripTop:  s.floatOrDefault(req.XTrTop, s.settings.Bridge.XTripTop),
		XTripBot:  s.floatOrDefault(req.XTrBot, s.settings.Bridge.XTripBot),
		ModelSize: size,
	}

	create := func() *analysis.PolarMeshCache {
		return analysis.NewPolarMeshCache(s.solver).
			WithLogger(s.logger).
			WithFingerprintMode(s.settings.Cache.FingerprintMode)
	}
	var resp meshResponse
	ok, err = s.registry.UpdateMesh(name, create, func(cache *analysis.PolarMeshCache) error {
		hit := s.wouldHit(cache, f, spec)
		if err := cache.GenerateMesh(c.Request().Context(), f, spec); err != nil {
			return err
		}
		reMin, reMax := cache.ReRange()
		alphaMin, alphaMax := cache.AlphaRange()
		resp = meshResponse{
			CacheHit: hit,
			Polars:   cache.Len(),
			ReMin:    reMin,
			ReMax:    reMax,
			AlphaMin: alphaMin,
			AlphaMax: alphaMax,
		}
		return nil
	})
	if !ok {
		return jsonError(c, http.StatusNotFound, "foil '%s' not registered", name)
	}
	if err != nil {
		return jsonError(c, http.StatusBadGateway, "mesh generation failed: %v", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// wouldHit mirrors the cache's own short-circuit check so the response
// can report whether generation was served from cache.
func (s *Server) wouldHit(cache *analysis.PolarMeshCache, f *geom.Foil, spec analysis.MeshSpec) bool {
	if cache.Len() == 0 || cache.Fingerprint() != f.Fingerprint(s.settings.Cache.FingerprintMode) {
		return false
	}
	reMin, reMax := cache.ReRange()
	alphaMin, alphaMax := cache.AlphaRange()
	return spec.ReMin >= reMin && spec.ReMax <= reMax &&
		spec.AlphaMin >= alphaMin && spec.AlphaMax <= alphaMax
}

func (s *Server) meshPoint(c echo.Context) error {
	name := c.Param("name")

	re, err := strconv.ParseFloat(c.QueryParam("re"), 64)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid re parameter: %q", c.QueryParam("re"))
	}
	cl, err := strconv.ParseFloat(c.QueryParam("cl"), 64)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid cl parameter: %q", c.QueryParam("cl"))
	}

	var pt analysis.MeshPoint
	ok, err := s.registry.ReadMesh(name, func(cache *analysis.PolarMeshCache) error {
		if cache == nil {
			return analysis.ErrEmptyCache
		}
		var err error
		pt, err = cache.PointFromCl(re, cl)
		return err
	})
	if !ok {
		return jsonError(c, http.StatusNotFound, "foil '%s' not registered", name)
	}
	switch {
	case errors.Is(err, polar.ErrOutOfRange):
		return jsonError(c, http.StatusUnprocessableEntity, "cl %g outside the mesh's covered lift range", cl)
	case errors.Is(err, analysis.ErrEmptyCache):
		return jsonError(c, http.StatusNotFound, "foil '%s' has no generated mesh", name)
	case err != nil:
		return jsonError(c, http.StatusInternalServerError, "%v", err)
	}
	return c.JSON(http.StatusOK, pointResponse{Cd: pt.Cd, XTrTop: pt.XTrTop, XTrBot: pt.XTrBot})
}

func (s *Server) analyze(c echo.Context) error {
	name := c.Param("name")
	f, ok := s.registry.Foil(name)
	if !ok {
		return jsonError(c, http.StatusNotFound, "foil '%s' not registered", name)
	}

	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body: %v", err)
	}
	if len(req.Cl) == 0 {
		return jsonError(c, http.StatusBadRequest, "cl targets are required")
	}
	if len(req.Re) != len(req.Cl) {
		return jsonError(c, http.StatusBadRequest, "cl and re must have equal length")
	}
	size, err := s.modelSize(req.ModelSize)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "%v", err)
	}

	p := polar.New(fmt.Sprintf("%s analyze", name), polar.Type2)
	p.NCrit = s.floatOrDefault(req.NCrit, s.settings.Bridge.NCrit)
	p.XTripTop = s.floatOrDefault(req.XTrTop, s.settings.Bridge.XTripTop)
	p.XTripBot = s.floatOrDefault(req.XTrBot, s.settings.Bridge.XTripBot)
	p.Resize(len(req.Cl))
	copy(p.Cl, req.Cl)
	copy(p.Re, req.Re)

	task := analysis.NewTask(s.solver).WithLogger(s.logger).WithModelSize(size)
	if err := task.Init(f, p); err != nil {
		return jsonError(c, http.StatusBadRequest, "%v", err)
	}
	if err := task.ProcessClList(c.Request().Context()); err != nil {
		return jsonError(c, http.StatusBadGateway, "analysis failed: %v", err)
	}

	rows := make([]analyzeRow, p.Len())
	for i := range rows {
		rows[i] = analyzeRow{
			Alpha:     p.Alpha[i],
			Cl:        p.Cl[i],
			Cd:        p.Cd[i],
			XTrTop:    p.XTrTop[i],
			XTrBot:    p.XTrBot[i],
			Converged: p.Converged[i],
		}
	}
	return c.JSON(http.StatusOK, rows)
}

func (s *Server) modelSize(raw string) (solver.ModelSize, error) {
	if raw == "" {
		return s.settings.Bridge.ModelSize, nil
	}
	return solver.ParseModelSize(raw)
}

func (s *Server) floatOrDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
