package server

import (
	"net/http"
	"net/http/pprof"

	"github.com/atikulmunna/logformat/internal/aggregator"
	"github.com/atikulmunna/logformat/internal/hub"
	"github.com/atikulmunna/logformat/internal/parser"
	"github.com/atikulmunna/logformat/internal/render"
	"github.com/gin-gonic/gin"
)

// Server holds the Gin engine and dependencies for the HTTP API.
type Server struct {
	engine     *gin.Engine
	hub        *hub.Hub
	aggregator *aggregator.Aggregator
	defaults   FormatDefaults
	port       string
}

// FormatDefaults applies to /api/format requests that leave mode or indent unset.
type FormatDefaults struct {
	Mode   render.Mode
	Indent int
}

// New creates an HTTP server for live formatted entries and on-demand formatting.
func New(h *hub.Hub, agg *aggregator.Aggregator, defaults FormatDefaults, port string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	// Disable automatic redirects that cause 301 issues.
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{
		engine:     engine,
		hub:        h,
		aggregator: agg,
		defaults:   defaults,
		port:       port,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check.
	s.engine.GET("/healthz", func(c *gin.Context) {
		stats := s.aggregator.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"status":        "ok",
			"uptime":        stats.Uptime,
			"files_watched": stats.FilesWatched,
			"eps":           stats.EPS,
			"dropped_logs":  stats.DroppedLogs,
		})
	})

	// Metrics API.
	s.engine.GET("/api/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.aggregator.Snapshot())
	})

	s.engine.POST("/api/format", s.handleFormat)

	// WebSocket.
	s.engine.GET("/ws", s.handleWebSocket)

	// pprof profiling endpoints.
	s.engine.GET("/debug/pprof/", gin.WrapF(pprof.Index))
	s.engine.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
	s.engine.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
	s.engine.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
	s.engine.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
	s.engine.GET("/debug/pprof/allocs", gin.WrapH(pprof.Handler("allocs")))
	s.engine.GET("/debug/pprof/heap", gin.WrapH(pprof.Handler("heap")))
	s.engine.GET("/debug/pprof/goroutine", gin.WrapH(pprof.Handler("goroutine")))
}

type formatRequest struct {
	Message string `json:"message" binding:"required"`
	Mode    string `json:"mode"`
	Indent  *int   `json:"indent"`
}

type formatResponse struct {
	Message  string   `json:"message"`
	Entities []string `json:"entities"`
	Rejected []string `json:"rejected,omitempty"`
}

// handleFormat parses one message and returns its template and rendered entities.
func (s *Server) handleFormat(c *gin.Context) {
	var req formatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mode := s.defaults.Mode
	if req.Mode != "" {
		m, err := render.ParseMode(req.Mode)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		mode = m
	}
	indent := s.defaults.Indent
	if req.Indent != nil {
		if *req.Indent < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "indent must be >= 0"})
			return
		}
		indent = *req.Indent
	}

	resp := formatResponse{Entities: []string{}}
	msg := parser.ParseMessage(req.Message, parser.WithRejectHook(func(span string, _ error) {
		resp.Rejected = append(resp.Rejected, span)
	}))
	resp.Message = msg.Message
	for _, e := range msg.Entities {
		resp.Entities = append(resp.Entities, render.String(mode, e, indent))
	}

	c.JSON(http.StatusOK, resp)
}

// Handler exposes the routes, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start runs the server. Blocks until the server is stopped.
func (s *Server) Start() error {
	return s.engine.Run(":" + s.port)
}
