package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/atikulmunna/flowscope/internal/aggregator"
	"github.com/atikulmunna/flowscope/internal/hub"
	"github.com/atikulmunna/flowscope/internal/output"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the Gin engine and dependencies for the report API.
type Server struct {
	engine     *gin.Engine
	hub        *hub.Hub
	aggregator *aggregator.Aggregator
	gatherer   prometheus.Gatherer
	textOpts   output.TextOptions
	port       string
}

// New creates the HTTP server for serve mode.
func New(h *hub.Hub, agg *aggregator.Aggregator, g prometheus.Gatherer, textOpts output.TextOptions, port string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{
		engine:     engine,
		hub:        h,
		aggregator: agg,
		gatherer:   g,
		textOpts:   textOpts,
		port:       port,
	}

	s.setupRoutes()
	return s
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRoutes() {
	s.engine.GET("/", s.handleText)
	s.engine.GET("/api/report/text", s.handleText)

	// Health check.
	s.engine.GET("/healthz", func(c *gin.Context) {
		stats := s.aggregator.Snapshot()
		status := "ok"
		if s.hub.Latest() == nil {
			status = "no report"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":        status,
			"uptime":        stats.Uptime,
			"files_watched": stats.FilesWatched,
			"reloads":       stats.Reloads,
			"failures":      stats.Failures,
		})
	})

	s.engine.GET("/api/report", func(c *gin.Context) {
		rep := s.hub.Latest()
		if rep == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no report built yet"})
			return
		}
		c.JSON(http.StatusOK, rep)
	})

	s.engine.GET("/api/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.aggregator.Snapshot())
	})

	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	// WebSocket.
	s.engine.GET("/ws", s.handleWebSocket)

	// pprof profiling endpoints.
	s.engine.GET("/debug/pprof/", gin.WrapF(pprof.Index))
	s.engine.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
	s.engine.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
	s.engine.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
	s.engine.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
	s.engine.GET("/debug/pprof/heap", gin.WrapH(pprof.Handler("heap")))
	s.engine.GET("/debug/pprof/goroutine", gin.WrapH(pprof.Handler("goroutine")))
}

// handleText renders the latest report in the terminal table layout.
func (s *Server) handleText(c *gin.Context) {
	rep := s.hub.Latest()
	if rep == nil {
		c.String(http.StatusServiceUnavailable, "no report built yet\n")
		return
	}

	opts := s.textOpts
	opts.Color = false

	var buf bytes.Buffer
	if err := output.NewTextRenderer(&buf, opts).Render(rep); err != nil {
		c.String(http.StatusInternalServerError, "render failed: %v\n", err)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

// Start runs the server until ctx is cancelled, then shuts it down.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
