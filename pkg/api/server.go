// Package api exposes the HTTP surface: inbound message handling, opt-out
// management, compliance status, session inspection, and the per-lead event
// feed.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/propertyline/leadflow/pkg/compliance"
	"github.com/propertyline/leadflow/pkg/events"
	"github.com/propertyline/leadflow/pkg/orchestrator"
	"github.com/propertyline/leadflow/pkg/session"
)

// Server is the HTTP API server.
type Server struct {
	orch  *orchestrator.Orchestrator
	gate  *compliance.Gate
	store *session.Store
	bus   *events.Bus

	httpServer *http.Server
}

// NewServer creates the API server.
func NewServer(orch *orchestrator.Orchestrator, gate *compliance.Gate, store *session.Store, bus *events.Bus) *Server {
	return &Server{orch: orch, gate: gate, store: store, bus: bus}
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(requestIDMiddleware(), loggingMiddleware(), recoveryMiddleware())

	r.GET("/health", s.healthHandler)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/inbound", s.inboundHandler)
		v1.POST("/optout", s.optOutHandler)
		v1.GET("/compliance/status", s.complianceStatusHandler)
		v1.GET("/sessions", s.listSessionsHandler)
		v1.GET("/sessions/:leadID", s.getSessionHandler)
		v1.GET("/events", s.eventsHandler)
	}
	return r
}

// Start begins serving on the given port. Blocks until the listener fails
// or Shutdown is called.
func (s *Server) Start(port string) error {
	s.httpServer = &http.Server{
		Addr:              ":" + port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("API server listening", "port", port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
