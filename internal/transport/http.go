package transport

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/shacharon/pizzasearch/internal/orchestrator"
	"github.com/shacharon/pizzasearch/internal/subscribe"
)

// Server is the HTTP/WebSocket transport (C14), generalized from the
// teacher's api.Server: a thin struct wrapping the web framework's router,
// wired against the Orchestrator and Subscription Manager, with the same
// Start/Shutdown lifecycle shape.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server

	orch        *orchestrator.Orchestrator
	subscribers *subscribe.Manager
	upgrader    websocket.Upgrader
	hb          HeartbeatConfig
}

// NewServer wires the submission, health, and subscription routes.
func NewServer(orch *orchestrator.Orchestrator, subscribers *subscribe.Manager, allowedOrigins []string, hb HeartbeatConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery())

	s := &Server{
		engine:      e,
		orch:        orch,
		subscribers: subscribers,
		hb:          hb,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}

	e.Use(securityHeaders())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.healthHandler)
	s.engine.POST("/api/search", s.submitHandler)
	s.engine.GET("/ws", s.wsHandler)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) submitHandler(c *gin.Context) {
	var body SubmitBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "invalid_body", Message: err.Error()})
		return
	}

	sub := orchestrator.Submission{
		SessionID:    body.SessionID,
		Query:        body.Query,
		UserLocation: body.UserLocation.toPipeline(),
		ClearContext: body.ClearContext,
	}
	if body.Filters != nil {
		sub.Filters = orchestrator.Filters{
			OpenNow:    body.Filters.OpenNow,
			PriceLevel: body.Filters.PriceLevel,
			Dietary:    body.Filters.Dietary,
			MustHave:   body.Filters.MustHave,
		}
	}

	result, err := s.orch.Submit(c.Request.Context(), sub)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusAccepted
	if result.Existing {
		status = http.StatusOK
	}
	c.JSON(status, SubmitResponse{RequestID: result.RequestID})
}

func (s *Server) wsHandler(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("transport: websocket upgrade failed", "err", err)
		return
	}
	wsConn := NewWSConnection(conn, s.subscribers, s.hb)
	wsConn.Serve(c.Request.Context())
}

// checkOrigin allows every origin when allowedOrigins contains "*"
// (development mode), otherwise only an exact match.
func checkOrigin(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, allowed := range allowedOrigins {
			if allowed == "*" || strings.EqualFold(allowed, origin) {
				return true
			}
		}
		return false
	}
}

// securityHeaders mirrors the teacher's middleware.go idea of attaching a
// small fixed set of response headers to every request.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Next()
	}
}

// Start runs the HTTP server, blocking until it exits or is shut down.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
