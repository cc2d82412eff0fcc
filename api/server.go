// Package api exposes the assistant over HTTP for local tooling and the
// web client.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/attent-app/attent/assistant"
	"github.com/attent-app/attent/db"
	"github.com/attent-app/attent/log"
)

var logger = log.GetLogger("API")

// MessageHandler processes one user message, replying through the channel
type MessageHandler interface {
	HandleMessage(ctx context.Context, userID, message, sourceChannel string, reply assistant.ReplyChannel)
}

// Deps are the collaborators the HTTP surface needs
type Deps struct {
	Assistant MessageHandler
	Tasks     *db.TaskStore
	People    *db.EntityStore
	Projects  *db.EntityStore
}

// Server hosts the HTTP API
type Server struct {
	deps   Deps
	router *gin.Engine
	http   *http.Server
}

// NewServer builds the router and registers all routes
func NewServer(deps Deps, development bool) *Server {
	if !development {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(log.GinLogger())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	s := &Server{deps: deps, router: router}
	s.registerRoutes()
	return s
}

// Start begins serving on addr. Blocks until the listener fails or closes.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info().Str("addr", addr).Msg("http server listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router returns the underlying engine (for tests)
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/api/health", s.handleHealth)

	s.router.POST("/api/message", s.handleMessage)

	s.router.GET("/api/tasks", s.handleListTasks)
	s.router.GET("/api/tasks/:id", s.handleGetTask)

	s.router.GET("/api/people", s.handleListEntities(s.deps.People))
	s.router.POST("/api/people/:id/resolve", s.handleResolveEntity(s.deps.People))

	s.router.GET("/api/projects", s.handleListEntities(s.deps.Projects))
	s.router.POST("/api/projects/:id/resolve", s.handleResolveEntity(s.deps.Projects))
}

func (s *Server) handleHealth(c *gin.Context) {
	RespondData(c, gin.H{"status": "ok"})
}
