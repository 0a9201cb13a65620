// Package rest exposes the catalogue over HTTP using echo. It is a thin
// driving adapter: handlers translate between HTTP and the catalogue
// service and never contain business rules.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/custodia-labs/cybercache/internal/core/services"
	"github.com/custodia-labs/cybercache/internal/export"
	"github.com/custodia-labs/cybercache/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// securityHeaders are set on every response.
var securityHeaders = map[string]string{
	"X-Content-Type-Options": "nosniff",
	"X-XSS-Protection":       "1; mode=block",
	"X-Frame-Options":        "SAMEORIGIN",
	"Content-Security-Policy": "default-src 'self'; " +
		"script-src 'self' 'unsafe-inline'; " +
		"style-src 'self' 'unsafe-inline'; " +
		"img-src 'self' data: blob:; " +
		"font-src 'self' data:;",
	"Referrer-Policy":    "strict-origin-when-cross-origin",
	"Permissions-Policy": "geolocation=(), microphone=(), camera=()",
}

// Server is the HTTP front of the catalogue.
type Server struct {
	echo       *echo.Echo
	catalogue  *services.CatalogueService
	exporter   *export.Exporter
	uploadsDir string
	version    string
}

// NewServer creates the HTTP server. uploadsDir backs the /files/:path
// route; bodyLimit caps request bodies in echo's size notation ("100M").
func NewServer(
	catalogue *services.CatalogueService,
	exporter *export.Exporter,
	uploadsDir string,
	bodyLimit string,
	version string,
) *Server {
	s := &Server{
		echo:       echo.New(),
		catalogue:  catalogue,
		exporter:   exporter,
		uploadsDir: uploadsDir,
		version:    version,
	}
	s.setupRoutes(bodyLimit)
	return s
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", addr).
			Str("version", s.version).
			Msg("Starting HTTP server")

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
		return err
	}

	logger.Info().Msg("Server gracefully stopped")
	return nil
}

// Handler exposes the underlying handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) setupRoutes(bodyLimit string) {
	s.echo.HideBanner = true
	s.echo.HidePort = true

	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} ${status} ${method} ${uri} (${latency_human})\n",
	}))
	if bodyLimit != "" {
		s.echo.Use(middleware.BodyLimit(bodyLimit))
	}
	s.echo.Use(applySecurityHeaders)

	api := s.echo.Group("/api")
	api.GET("/resources", s.listResources)
	api.GET("/resources/:id", s.getResource)
	api.POST("/resources", s.createResource)
	api.PUT("/resources/:id", s.updateResource)
	api.DELETE("/resources/:id", s.deleteResource)
	api.POST("/upload", s.uploadFile)
	api.GET("/search", s.search)
	api.GET("/categories", s.listCategories)
	api.GET("/bookmarks/export/:browser", s.exportBookmarks)
	api.GET("/health", s.health)
	api.GET("/stats", s.stats)

	s.echo.GET("/files/id/:id", s.serveFileByID)
	s.echo.GET("/files/:path", s.serveFileByPath)
}

// applySecurityHeaders sets the defensive header set on every response.
func applySecurityHeaders(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Response().Header()
		for name, value := range securityHeaders {
			header.Set(name, value)
		}
		return next(c)
	}
}
