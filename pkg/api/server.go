// Package api exposes the monitoring system's front-end collaborator
// surface over HTTP: node/credential CRUD, sample and status-change
// history, uptime queries, a live WebSocket event feed, and a
// Prometheus scrape endpoint.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/last-emo-boy/net-monitor/pkg/credential"
	"github.com/last-emo-boy/net-monitor/pkg/engine"
	"github.com/last-emo-boy/net-monitor/pkg/events"
	"github.com/last-emo-boy/net-monitor/pkg/logging"
	"github.com/last-emo-boy/net-monitor/pkg/metrics"
	"github.com/last-emo-boy/net-monitor/pkg/store"
)

// Server wires the store, credential vault, engine command channel,
// event hub, and metrics registry behind a gin router.
type Server struct {
	router *gin.Engine

	nodes       *store.NodeRepo
	samples     *store.SampleRepo
	changes     *store.StatusChangeRepo
	credentials *credential.Store
	commands    chan<- engine.ConfigUpdate
	hub         *events.Hub
	metrics     *metrics.Metrics
	logger      *logging.Logger
}

// Config bundles the collaborators a Server needs. Metrics and Hub may
// be nil to disable the corresponding endpoints.
type Config struct {
	Nodes       *store.NodeRepo
	Samples     *store.SampleRepo
	Changes     *store.StatusChangeRepo
	Credentials *credential.Store
	Commands    chan<- engine.ConfigUpdate
	Hub         *events.Hub
	Metrics     *metrics.Metrics
	Logger      *logging.Logger
}

// New builds a Server and registers its routes.
func New(cfg Config) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	s := &Server{
		router:      router,
		nodes:       cfg.Nodes,
		samples:     cfg.Samples,
		changes:     cfg.Changes,
		credentials: cfg.Credentials,
		commands:    cfg.Commands,
		hub:         cfg.Hub,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}

	router.Use(RecoveryMiddleware(s.logger), LoggingMiddleware(s.logger), CORSMiddleware())
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler to mount on an *http.Server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if s.metrics != nil {
		s.router.GET("/metrics", s.handleMetrics)
	}
	if s.hub != nil {
		s.router.GET("/events", s.handleEvents)
	}

	v1 := s.router.Group("/api/v1")

	nodes := v1.Group("/nodes")
	{
		nodes.GET("", s.listNodes)
		nodes.POST("", s.createNode)
		nodes.GET("/:id", s.getNode)
		nodes.PUT("/:id", s.updateNode)
		nodes.DELETE("/:id", s.deleteNode)
		nodes.PUT("/reorder", s.reorderNodes)
		nodes.GET("/:id/samples", s.listSamples)
		nodes.GET("/:id/status-changes", s.listStatusChanges)
		nodes.GET("/:id/uptime", s.uptime)
	}

	v1.GET("/export", s.exportNodes)
	v1.POST("/import", s.importNodes)

	creds := v1.Group("/credentials")
	{
		creds.GET("", s.listCredentials)
		creds.POST("", s.createCredential)
		creds.PUT("/:id", s.updateCredential)
		creds.DELETE("/:id", s.deleteCredential)
	}
}

func (s *Server) handleMetrics(c *gin.Context) {
	promMetricsHandler().ServeHTTP(c.Writer, c.Request)
}

func (s *Server) handleEvents(c *gin.Context) {
	conn, err := events.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	s.hub.Register(conn)
}
