// Package server exposes the keep-alive page, health probes and metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stock-bot/internal/common/logger"
	"stock-bot/internal/session"
)

const aliveText = "StokBot aktif! 🚀"

// SessionState reports the messaging session state.
type SessionState interface {
	State() session.State
}

type Server struct {
	router   *gin.Engine
	http     *http.Server
	sessions SessionState
	logger   logger.Logger
}

func New(addr string, sessions SessionState, log logger.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:   router,
		sessions: sessions,
		logger:   log.WithFields(map[string]interface{}{"component": "http"}),
	}
	router.Use(s.requestLogger())
	s.RegisterRoutes(router)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) RegisterRoutes(router *gin.Engine) {
	router.GET("/", s.Alive)
	router.GET("/health", s.Health)
	router.GET("/ready", s.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Alive is the keep-alive endpoint pinged by uptime monitors.
func (s *Server) Alive(c *gin.Context) {
	c.String(http.StatusOK, aliveText)
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Ready is 200 only while the messaging session is connected.
func (s *Server) Ready(c *gin.Context) {
	state := s.sessions.State()
	status := http.StatusOK
	body := gin.H{
		"status":  "ready",
		"session": state.String(),
		"time":    time.Now().Format(time.RFC3339),
	}
	if state != session.StateConnected {
		status = http.StatusServiceUnavailable
		body["status"] = "not_ready"
	}
	c.JSON(status, body)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}

// Start serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{"addr": s.http.Addr})
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
