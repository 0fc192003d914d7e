// Package admin exposes an OperationCache over HTTP for inspection and
// manual invalidation.
package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/krisalay/operation-cache/api"
)

const shutdownTimeout = 10 * time.Second

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Server struct {
	addr     string
	cache    api.Cache
	gatherer prometheus.Gatherer
	logger   log.Interface
	router   *gin.Engine
}

// NewServer builds the admin router for c. Metrics are served from gatherer;
// a nil gatherer disables /metrics.
func NewServer(addr string, c api.Cache, gatherer prometheus.Gatherer, logger log.Interface) *Server {
	if logger == nil {
		logger = log.Log
	}
	s := &Server{
		addr:     addr,
		cache:    c,
		gatherer: gatherer,
		logger:   logger,
		router:   gin.New(),
	}
	s.setupRoutes()
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery(), s.requestLogger())

	s.router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	s.router.GET("/stats", s.stats)
	s.router.POST("/sweep", s.sweep)

	entries := s.router.Group("/entries")
	{
		entries.DELETE("", s.clear)
		entries.DELETE("/key", s.deleteKey)
	}

	if s.gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("admin request")
	}
}

func (s *Server) stats(c *gin.Context) {
	body, err := json.Marshal(s.cache.Stats())
	if err != nil {
		s.logger.WithError(err).Error("failed to encode stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode stats"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (s *Server) clear(c *gin.Context) {
	prefix := c.Query("prefix")
	removed := s.cache.Clear(prefix)
	s.logger.WithFields(log.Fields{"prefix": prefix, "removed": removed}).Info("cache cleared via admin")
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (s *Server) deleteKey(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}
	s.cache.DeleteKey(key)
	c.Status(http.StatusNoContent)
}

func (s *Server) sweep(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"removed": s.cache.CleanExpired()})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.addr).Info("admin server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("admin server stopped")
	return nil
}
