package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"ipo-wizard/src/interfaces"
	"ipo-wizard/src/logger"
	"ipo-wizard/src/models"
	"ipo-wizard/src/session"
	"ipo-wizard/src/wizard"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

// Server exposes wizard sessions over REST and pushes session state to
// websocket subscribers.
type Server struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	Sessions *session.Manager
	Wizard   wizard.Dependencies
	Storage  interfaces.IPinger

	engine     *gin.Engine
	httpServer *http.Server

	// WebSocket clients
	clientsMu  sync.RWMutex
	clients    map[*Client]struct{}
	broadcast  chan *models.MSessionEvent
	direct     chan delivery
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewServer(cfg *models.MConfig, sessions *session.Manager, deps wizard.Dependencies, store interfaces.IPinger, log *logger.Logger) *Server {
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		Config:   cfg,
		Logger:   log,
		Sessions: sessions,
		Wizard:   deps,
		Storage:  store,
		engine:   gin.Default(),
		clients:  make(map[*Client]struct{}),
		// Buffered so handlers rarely wait on the hub
		broadcast:  make(chan *models.MSessionEvent, 256),
		direct:     make(chan delivery, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: s.engine,
	}

	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	sessions.OnExpire(s.publishClosed)

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)
	api.GET("/config", s.getConfig)

	api.POST("/sessions", s.createSession)
	api.POST("/sessions/resume", s.resumeSession)

	sess := api.Group("/sessions/:id")
	sess.GET("", s.getSession)
	sess.DELETE("", s.deleteSession)
	sess.POST("/role", s.setRole)

	sess.POST("/clients/search", s.searchClients)
	sess.POST("/clients/select-all", s.selectAll)
	sess.POST("/clients/clear", s.clearSelection)
	sess.POST("/clients/:clientId/toggle", s.toggleClient)

	sess.PUT("/allocations", s.bulkSetLots)
	sess.PUT("/allocations/:clientId", s.setLots)
	sess.PUT("/price", s.setPrice)
	sess.PUT("/payment", s.setPayment)
	sess.GET("/payment/bank-form", s.bankForm)

	sess.POST("/terms", s.acceptTerms)
	sess.POST("/next", s.next)
	sess.POST("/previous", s.previous)
	sess.POST("/submit", s.submit)
	sess.POST("/draft", s.saveDraft)

	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *Server) Start() error {
	s.Logger.Info("Starting server on %s", s.httpServer.Addr)

	go s.handleWebsockets()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *Server) Stop() error {
	s.stopOnce.Do(func() { close(s.done) })

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// -----------------------------------------------------------------------------
// Service Handlers
// -----------------------------------------------------------------------------

func (s *Server) getHealth(c *gin.Context) {
	s.clientsMu.RLock()
	connections := len(s.clients)
	s.clientsMu.RUnlock()

	health := models.MHealthStatus{
		Status:         "ok",
		Sessions:       s.Sessions.Count(),
		Connections:    connections,
		StorageHealthy: true,
		CheckedAt:      time.Now().UTC(),
	}

	if s.Storage != nil {
		if err := s.Storage.Ping(c.Request.Context()); err != nil {
			s.Logger.Warning("Health check: storage ping failed: %v", err)
			health.Status = "degraded"
			health.StorageHealthy = false
			c.JSON(http.StatusServiceUnavailable, health)
			return
		}
	}

	c.JSON(http.StatusOK, health)
}

// -----------------------------------------------------------------------------

// getConfig returns the running configuration. Credentials never serialize.
func (s *Server) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.Config)
}
