package api

import (
	"context"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/attent-app/attent/db"
)

// messageRequest is the POST /api/message body
type messageRequest struct {
	UserID  string `json:"userId" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// messageResponse carries everything the assistant said back
type messageResponse struct {
	Replies []string `json:"replies"`
}

func (s *Server) handleMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "userId and message are required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		RespondBadRequest(c, "message must not be blank")
		return
	}

	reply := newCollectingReply()
	s.deps.Assistant.HandleMessage(c.Request.Context(), req.UserID, req.Message, "http", reply)

	RespondData(c, messageResponse{Replies: reply.Replies()})
}

func (s *Server) handleListTasks(c *gin.Context) {
	filter := db.TaskFilter{
		Status:  c.Query("status"),
		Project: c.Query("project"),
		DueDate: c.Query("due"),
	}

	tasks, err := s.deps.Tasks.GetTasks(filter)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list tasks")
		RespondInternalError(c, "failed to list tasks")
		return
	}
	RespondList(c, tasks)
}

func (s *Server) handleGetTask(c *gin.Context) {
	task, err := s.deps.Tasks.GetTask(c.Param("id"))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load task")
		RespondInternalError(c, "failed to load task")
		return
	}
	if task == nil {
		RespondNotFound(c, "task not found")
		return
	}
	RespondData(c, task)
}

type entityListResponse struct {
	Known   []db.Entity `json:"known"`
	Pending []db.Entity `json:"pending"`
}

func (s *Server) handleListEntities(store *db.EntityStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		known, err := store.ListKnown()
		if err != nil {
			logger.Error().Err(err).Msg("failed to list entities")
			RespondInternalError(c, "failed to list entities")
			return
		}
		pending, err := store.ListPending()
		if err != nil {
			logger.Error().Err(err).Msg("failed to list pending entities")
			RespondInternalError(c, "failed to list entities")
			return
		}
		if known == nil {
			known = []db.Entity{}
		}
		if pending == nil {
			pending = []db.Entity{}
		}
		RespondData(c, entityListResponse{Known: known, Pending: pending})
	}
}

func (s *Server) handleResolveEntity(store *db.EntityStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := store.Resolve(c.Param("id")); err != nil {
			RespondNotFound(c, "entity not found")
			return
		}
		RespondData(c, gin.H{"resolved": true})
	}
}

// collectingReply gathers assistant output for a synchronous HTTP response.
// Status messages are dropped once the final edit arrives.
type collectingReply struct {
	mu       sync.Mutex
	replies  []string
	statuses map[string]int
}

func newCollectingReply() *collectingReply {
	return &collectingReply{statuses: make(map[string]int)}
}

func (r *collectingReply) SendMessage(ctx context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, text)
	return nil
}

func (r *collectingReply) SendStatusMessage(ctx context.Context, text string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := "status"
	r.replies = append(r.replies, text)
	r.statuses[id] = len(r.replies) - 1
	return id, nil
}

func (r *collectingReply) EditStatusMessage(ctx context.Context, messageID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx, ok := r.statuses[messageID]; ok {
		r.replies[idx] = text
		return nil
	}
	r.replies = append(r.replies, text)
	return nil
}

func (r *collectingReply) Replies() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.replies))
	copy(out, r.replies)
	return out
}
