// Package site serves a static site shell and its fragments over HTTP with gin.
package site

import (
	"context"
	"errors"
	"net/http"
	"time"

	"fragnav/internal/config"
	"fragnav/internal/logging"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server serves the site directory.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	router *gin.Engine
}

// New creates a Server for cfg.Site.Root.
func New(cfg *config.Config, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		cfg:    cfg,
		logger: logging.OrNop(logger),
		router: gin.New(),
	}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.POST("/forms/:name", s.handleForm)

	files := http.FileServer(http.Dir(s.cfg.Site.Root))
	s.router.NoRoute(gin.WrapH(files))
}

// Handler returns the HTTP handler of the site.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleForm(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid form"})
		return
	}
	form := c.Param("name")
	if IsSpam(c.Request.PostForm) {
		s.logger.Warn("possible spam rejected", zap.String("form", form), zap.String("remote", c.ClientIP()))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "could not send the form"})
		return
	}
	s.logger.Info("form received", zap.String("form", form), zap.Int("fields", len(c.Request.PostForm)))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

// ListenAndServe serves on cfg.Site.Addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Site.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving site", zap.String("addr", srv.Addr), zap.String("root", s.cfg.Site.Root))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}
