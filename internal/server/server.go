// Package server exposes the scanner service over HTTP with gin.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/goliatone/go-scannergen/internal/logger"
	"github.com/goliatone/go-scannergen/pkg/service"
)

// maxBodyBytes caps request payloads.
const maxBodyBytes = 1 << 20

type Config struct {
	// CORSOrigins lists allowed origins; "*" allows any.
	CORSOrigins []string
	// Mode is the gin mode (debug, release, test).
	Mode   string
	Logger *logger.Logger
}

type Server struct {
	Engine *gin.Engine

	svc    *service.Service
	log    *logger.Logger
	bodies bodySchemas
}

// New builds the router. The embedded OpenAPI document is loaded and
// validated up front and its request schemas guard JSON bodies.
func New(ctx context.Context, svc *service.Service, cfg Config) (*Server, error) {
	if svc == nil {
		return nil, errors.New("server: service is required")
	}
	spec, err := LoadSpec(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	s := &Server{svc: svc, log: log, bodies: newBodySchemas(spec)}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(corsMiddleware(cfg.CORSOrigins))

	r.GET("/healthz", s.health)
	r.GET("/openapi.yaml", s.openapi)
	r.GET("/preview/:session", s.preview)

	api := r.Group("/api")
	api.Use(s.validateBody())
	{
		api.GET("/sections", s.listSections)
		api.POST("/sections", s.createSection)
		api.PUT("/sections/:id", s.saveSection)
		api.DELETE("/sections/:id", s.deleteSection)
		api.POST("/sections/:id/move", s.moveSection)

		api.GET("/questions", s.listQuestions)
		api.POST("/questions", s.createQuestion)
		api.PUT("/questions/:id", s.saveQuestion)
		api.DELETE("/questions/:id", s.deleteQuestion)
		api.POST("/questions/:id/move", s.moveQuestion)

		api.GET("/sessions/:session/answers", s.getAnswers)
		api.PUT("/sessions/:session/answers/:question", s.putAnswer)
		api.DELETE("/sessions/:session/answers", s.clearAnswers)
		api.GET("/sessions/:session/code", s.sessionCode)

		api.POST("/generate", s.generate)
		api.GET("/lint", s.lint)
	}

	s.Engine = r
	return s, nil
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listen: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("http server shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Requested-With"},
		MaxAge:       12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
		}
	}
	if !cfg.AllowAllOrigins {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
		if len(origins) == 0 {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
		}
	}
	return cors.New(cfg)
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if len(c.Errors) > 0 {
			log.Error("request failed", append(kv, "error", c.Errors.String())...)
			return
		}
		log.Debug("request", kv...)
	}
}

// validateBody checks JSON bodies against the OpenAPI request schemas and
// restores the body for the handler.
func (s *Server) validateBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.Method == http.MethodGet || c.Request.Method == http.MethodDelete {
			c.Next()
			return
		}
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
		if err != nil {
			respondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
			return
		}
		if len(raw) > maxBodyBytes {
			respondError(c, http.StatusRequestEntityTooLarge, CodeInvalidRequest, errors.New("request body too large"))
			return
		}
		if err := s.bodies.validate(c.Request.Method, c.FullPath(), raw); err != nil {
			fail(c, err)
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))
		c.Next()
	}
}
