// Package server exposes an arena over HTTP: a small REST API to control it and a websocket
// streaming its events.
package server

import (
	"context"
	"net/http"
	_ "net/http/pprof" // Registers /debug/pprof handlers on http.DefaultServeMux.
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/janpfeifer/chessArena/internal/arena"
	"github.com/janpfeifer/chessArena/internal/events"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DefaultNumMatches of a training session, when the request doesn't specify it.
const DefaultNumMatches = 10

// Options of the server.
type Options struct {
	// Pprof enables the /debug/pprof endpoints.
	Pprof bool
}

// Server routes HTTP requests to an Arena.
type Server struct {
	arena  *arena.Arena
	hub    *events.Hub
	router *gin.Engine
}

// New creates the server for a. The events of hub (that a publishes to) are streamed on /ws.
func New(a *arena.Arena, hub *events.Hub, options Options) *Server {
	s := &Server{arena: a, hub: hub, router: gin.New()}
	s.router.Use(gin.Recovery(), requestLogger(), cors())
	api := s.router.Group("/api")
	{
		api.POST("/play-match", s.playMatch)
		api.POST("/start-training", s.startTraining)
		api.POST("/reset", s.reset)
		api.GET("/agents", s.agents)
		api.GET("/status", s.status)
		api.GET("/matches", s.matches)
	}
	s.router.GET("/ws", gin.WrapH(events.NewWebSocketHandler(hub, a.Agents)))
	if options.Pprof {
		s.router.GET("/debug/pprof/*profile", gin.WrapH(http.DefaultServeMux))
	}
	return s
}

// Handler returns the http.Handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves HTTP requests on addr until ctx is done, and then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errChan := make(chan error, 1)
	go func() {
		klog.Infof("Listening on %s", addr)
		errChan <- httpServer.ListenAndServe()
	}()
	select {
	case err := <-errChan:
		return errors.Wrapf(err, "failed to serve on %s", addr)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	klog.Infof("Shutting down server on %s", addr)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "failed to shutdown server")
	}
	return nil
}

// httpStatus of the errors returned by the arena.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, arena.ErrSessionConflict):
		return http.StatusConflict
	case errors.Is(err, arena.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, arena.ErrBusy), errors.Is(err, arena.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, arena.ErrHistoryDisabled):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := httpStatus(err)
	if status == http.StatusInternalServerError {
		klog.Errorf("%s %s failed: %+v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// bindOptionalJSON binds the request body, if any, to obj.
func bindOptionalJSON(c *gin.Context, obj any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) playMatch(c *gin.Context) {
	matchID, err := s.arena.PlayMatch()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "match_started", "match_id": matchID})
}

// TrainingRequest is the body of /api/start-training.
type TrainingRequest struct {
	NumMatches *int `json:"num_matches"`
}

func (s *Server) startTraining(c *gin.Context) {
	var req TrainingRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	numMatches := DefaultNumMatches
	if req.NumMatches != nil {
		numMatches = *req.NumMatches
	}
	sessionID, err := s.arena.StartTraining(numMatches)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "training_started", "num_matches": numMatches, "session_id": sessionID})
}

// ResetRequest is the body of /api/reset.
type ResetRequest struct {
	PopulationSize *int `json:"population_size"`
}

func (s *Server) reset(c *gin.Context) {
	var req ResetRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	size := arena.DefaultPopulationSize
	if req.PopulationSize != nil {
		size = *req.PopulationSize
	}
	if err := s.arena.Reset(size); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset", "population_size": size})
}

func (s *Server) agents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"agents": s.arena.Agents()})
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.arena.Status())
}

func (s *Server) matches(c *gin.Context) {
	limit := 0
	if value := c.Query("limit"); value != "" {
		var err error
		limit, err = strconv.Atoi(value)
		if err != nil || limit < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid limit " + strconv.Quote(value)})
			return
		}
	}
	matches, err := s.arena.History(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// cors allows requests from any origin, so dashboards can be served from anywhere.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.Writer.Header()
		header.Set("Access-Control-Allow-Origin", "*")
		header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		header.Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if klog.V(1).Enabled() {
			klog.Infof("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
		}
	}
}
