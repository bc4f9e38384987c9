package server

import (
	"log/slog"
	"net/http"
	"sync"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"

	"github.com/procflow/engine/internal/event"
	"github.com/procflow/engine/internal/script"
	"github.com/procflow/engine/internal/store"
	"github.com/procflow/engine/internal/util"
	"github.com/procflow/engine/pkg/engine"
)

// Server implements the HTTP API server for the flowsheet service
type Server struct {
	adapter engine.Adapter
	reports *store.Store
	events  *event.Bus
	scripts *script.Registry
	sockets util.Set[*Client]
	runMu   sync.Mutex
	mu      sync.Mutex
}

// NewServer creates a new HTTP API server. The report store may be nil
// when run persistence is not configured.
func NewServer(
	adapter engine.Adapter, reports *store.Store, events *event.Bus,
) *Server {
	return &Server{
		adapter: adapter,
		reports: reports,
		events:  events,
		scripts: script.NewRegistry(),
		sockets: util.Set[*Client]{},
	}
}

// SetupRoutes configures and returns the HTTP router with all API
// endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set(
			"Access-Control-Allow-Methods",
			"GET, POST, OPTIONS",
		)
		c.Writer.Header().Set(
			"Access-Control-Allow-Headers",
			"Content-Type, Authorization",
		)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", s.handleHealth)

	// Equipment catalog
	router.GET("/kinds", s.handleKinds)

	// Flowsheet execution
	fs := router.Group("/flowsheet")
	{
		fs.POST("/run", s.handleRun)
		fs.POST("/script", s.handleScript)
	}

	// Run history
	runs := router.Group("/runs")
	{
		runs.GET("", s.listRuns)
		runs.GET("/:runID", s.getRun)
	}

	// WebSocket
	router.GET("/ws", s.handleWebSocket)

	return router
}

func (s *Server) registerWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets.Add(c)
}

func (s *Server) unregisterWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets.Remove(c)
}

// CloseWebSockets closes all active WebSocket connections.
func (s *Server) CloseWebSockets() {
	s.mu.Lock()
	conns := make([]*Client, 0, len(s.sockets))
	for c := range s.sockets {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
