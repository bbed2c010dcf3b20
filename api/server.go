package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"aeropolar/config"
	"aeropolar/solver"
)

// Server is the HTTP surface over the registry: foil management, mesh
// generation and interpolation queries, and single-shot analyses.
type Server struct {
	echo     *echo.Echo
	registry *Registry
	solver   solver.Solver
	settings config.Settings
	logger   *zap.Logger
}

// NewServer assembles the server around a solver. Analysis parameters
// left out of a request default to the settings' bridge configuration.
func NewServer(sv solver.Solver, settings config.Settings, lg *zap.Logger) *Server {
	if lg == nil {
		lg = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	s := &Server{
		echo:     e,
		registry: NewRegistry(),
		solver:   sv,
		settings: settings,
		logger:   lg.Named("api"),
	}
	s.registerRoutes()
	return s
}

// Registry returns the server's object registry, e.g. for pre-loading
// foils before Start.
func (s *Server) Registry() *Registry {
	return s.registry
}

func (s *Server) registerRoutes() {
	g := s.echo.Group("/api")
	g.GET("/healthz", s.healthz)

	g.POST("/foils", s.createFoil)
	g.GET("/foils", s.listFoils)
	g.GET("/foils/:name", s.getFoil)
	g.DELETE("/foils/:name", s.deleteFoil)

	g.POST("/foils/:name/mesh", s.generateMesh)
	g.GET("/foils/:name/mesh/point", s.meshPoint)
	g.POST("/foils/:name/analyze", s.analyze)
}

// Start blocks serving HTTP on addr until Shutdown or a listener error.
func (s *Server) Start(addr string) error {
	s.logger.Info("api listening", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
