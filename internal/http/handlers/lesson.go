package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursehall-backend/internal/domain"
	"github.com/yungbote/coursehall-backend/internal/http/response"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
	"github.com/yungbote/coursehall-backend/internal/services"
)

type LessonHandler struct {
	log     *logger.Logger
	lessons services.LessonAdminService
}

func NewLessonHandler(log *logger.Logger, lessons services.LessonAdminService) *LessonHandler {
	return &LessonHandler{
		log:     log.With("handler", "LessonHandler"),
		lessons: lessons,
	}
}

// GET /api/lessons/:id
func (h *LessonHandler) GetLesson(c *gin.Context) {
	lesson, err := h.lessons.GetLesson(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lesson": lesson})
}

// POST /api/lessons
func (h *LessonHandler) CreateLesson(c *gin.Context) {
	var in domain.LessonInput
	if !bindJSON(c, &in) {
		return
	}
	lesson, err := h.lessons.CreateLesson(c.Request.Context(), in)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"lesson": lesson})
}

// PUT /api/lessons/:id
func (h *LessonHandler) UpdateLesson(c *gin.Context) {
	var in domain.LessonInput
	if !bindJSON(c, &in) {
		return
	}
	if err := h.lessons.UpdateLesson(c.Request.Context(), c.Param("id"), in); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// DELETE /api/lessons/:id
func (h *LessonHandler) DeleteLesson(c *gin.Context) {
	if err := h.lessons.DeleteLesson(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

type completionRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// PUT /api/lessons/:id/completion
func (h *LessonHandler) SetCompletion(c *gin.Context) {
	var req completionRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.lessons.SetCompletion(c.Request.Context(), c.Param("id"), *req.Completed); err != nil {
		h.log.Warn("SetCompletion failed", "lesson_id", c.Param("id"), "error", err)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"completed": *req.Completed})
}

type answerRequest struct {
	Answer string `json:"answer" binding:"required"`
}

// POST /api/lessons/:id/quizzes/:quizId/answer
func (h *LessonHandler) SubmitAnswer(c *gin.Context) {
	var req answerRequest
	if !bindJSON(c, &req) {
		return
	}
	correct, err := h.lessons.SubmitAnswer(c.Request.Context(), c.Param("id"), c.Param("quizId"), req.Answer)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"correct": correct})
}
