package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursehall-backend/internal/http/response"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
	"github.com/yungbote/coursehall-backend/internal/services"
)

type PlayerHandler struct {
	log  *logger.Logger
	host services.PlayerHostService
}

func NewPlayerHandler(log *logger.Logger, host services.PlayerHostService) *PlayerHandler {
	return &PlayerHandler{
		log:  log.With("handler", "PlayerHandler"),
		host: host,
	}
}

type playerQuizRequest struct {
	QuizID string `json:"quizId" binding:"required"`
	Answer string `json:"answer"`
}

func (h *PlayerHandler) respond(c *gin.Context, view *services.PlayerView, err error) {
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"player": view})
}

func (h *PlayerHandler) simple(c *gin.Context, fn func(ctx context.Context, lessonID string) (*services.PlayerView, error)) {
	view, err := fn(c.Request.Context(), c.Param("lessonId"))
	h.respond(c, view, err)
}

// GET /api/player/:lessonId
func (h *PlayerHandler) Open(c *gin.Context) { h.simple(c, h.host.Open) }

// POST /api/player/:lessonId/advance
func (h *PlayerHandler) Advance(c *gin.Context) { h.simple(c, h.host.Advance) }

// POST /api/player/:lessonId/retreat
func (h *PlayerHandler) Retreat(c *gin.Context) { h.simple(c, h.host.Retreat) }

// POST /api/player/:lessonId/complete
func (h *PlayerHandler) Complete(c *gin.Context) {
	view, err := h.host.Complete(c.Request.Context(), c.Param("lessonId"))
	if err != nil {
		h.log.Warn("Lesson completion failed", "lesson_id", c.Param("lessonId"), "error", err)
	}
	h.respond(c, view, err)
}

// POST /api/player/:lessonId/answer
func (h *PlayerHandler) Answer(c *gin.Context) {
	var req playerQuizRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.host.Answer(c.Request.Context(), c.Param("lessonId"), req.QuizID, req.Answer)
	h.respond(c, view, err)
}

// POST /api/player/:lessonId/submit
func (h *PlayerHandler) Submit(c *gin.Context) {
	var req playerQuizRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.host.Submit(c.Request.Context(), c.Param("lessonId"), req.QuizID)
	h.respond(c, view, err)
}

// POST /api/player/:lessonId/reset
func (h *PlayerHandler) Reset(c *gin.Context) {
	var req playerQuizRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.host.Reset(c.Request.Context(), c.Param("lessonId"), req.QuizID)
	h.respond(c, view, err)
}
