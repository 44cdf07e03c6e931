// Package server exposes the settings and the dispatcher over a JSON REST API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loykin/prnotify/internal/common"
	"github.com/loykin/prnotify/internal/dispatch"
	"github.com/loykin/prnotify/internal/settings"
	"github.com/loykin/prnotify/internal/store"
)

// ResponseLister reads the dispatch audit trail.
type ResponseLister interface {
	ListResponses(ctx context.Context, limit int) ([]store.NotificationResponse, error)
}

// Options wires the server. Responses may be nil, which disables
// GET /api/responses.
type Options struct {
	Settings   *settings.Service
	Dispatcher *dispatch.Dispatcher
	Responses  ResponseLister
	JWT        JWTConfig
}

// Server is the REST API.
type Server struct {
	opts   Options
	engine *gin.Engine
}

// New builds the routes.
func New(opts Options) *Server {
	s := &Server{opts: opts, engine: gin.New()}
	s.engine.Use(gin.Recovery(), requestLogger())
	s.routes()
	return s
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api")
	if s.opts.JWT.Enabled() {
		api.Use(jwtMiddleware(s.opts.JWT))
	}
	admin := s.requireAdmin()

	n := api.Group("/notifications")
	n.GET("", s.listNotifications)
	n.GET("/projects/:projectKey", s.listNotifications)
	n.GET("/projects/:projectKey/repos/:repositorySlug", s.listNotifications)
	n.GET("/:uuid", s.getNotification)
	n.POST("", admin, s.saveNotification)
	n.DELETE("/:uuid", admin, s.deleteNotification)

	b := api.Group("/buttons")
	b.GET("", s.listButtons)
	b.GET("/projects/:projectKey", s.listButtons)
	b.GET("/projects/:projectKey/repos/:repositorySlug", s.listButtons)
	b.GET("/:uuid", s.getButton)
	b.POST("", admin, s.saveButton)
	b.DELETE("/:uuid", admin, s.deleteButton)
	b.POST("/:uuid/press", s.pressButton)

	api.GET("/settings", admin, s.getData)
	api.POST("/settings", admin, s.saveData)

	api.POST("/events", admin, s.handleEvent)
	api.GET("/responses", admin, s.listResponses)
}

// requireAdmin rejects callers below the configured admin restriction.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := s.opts.Settings.Data(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		if !data.AdminRestriction.Permits(callerLevel(c)) {
			abort(c, http.StatusForbidden, "forbidden: "+string(data.AdminRestriction)+" required")
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		common.GetLogger().WithComponent("server").WithRequest(c.Request.Method, c.Request.URL.Path).
			Info("request handled", "status", c.Writer.Status(), "duration", time.Since(start))
	}
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		common.GetLogger().WithComponent("server").Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// fail maps service errors to HTTP answers.
func fail(c *gin.Context, err error) {
	var ve *settings.ValidationError
	switch {
	case errors.As(err, &ve):
		c.AbortWithStatusJSON(http.StatusBadRequest, ve)
	case errors.Is(err, settings.ErrNotFound):
		abort(c, http.StatusNotFound, err.Error())
	default:
		common.GetLogger().WithComponent("server").Error("request failed", "path", c.Request.URL.Path, "error", err)
		abort(c, http.StatusInternalServerError, err.Error())
	}
}
