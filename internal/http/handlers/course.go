package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursehall-backend/internal/domain"
	"github.com/yungbote/coursehall-backend/internal/http/response"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
	"github.com/yungbote/coursehall-backend/internal/services"
)

type CourseHandler struct {
	log     *logger.Logger
	courses services.CourseAdminService
}

func NewCourseHandler(log *logger.Logger, courses services.CourseAdminService) *CourseHandler {
	return &CourseHandler{
		log:     log.With("handler", "CourseHandler"),
		courses: courses,
	}
}

// GET /api/courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	courses, err := h.courses.ListCourses(c.Request.Context())
	if err != nil {
		h.log.Error("ListCourses failed", "error", err)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"courses": courses})
}

// GET /api/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	course, err := h.courses.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

// GET /api/courses/:id/lessons
func (h *CourseHandler) ListLessons(c *gin.Context) {
	lessons, err := h.courses.ListLessons(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lessons": lessons})
}

// GET /api/courses/:id/progress
func (h *CourseHandler) Progress(c *gin.Context) {
	progress, err := h.courses.Progress(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"courseId": c.Param("id"), "progress": progress})
}

// POST /api/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var in domain.CourseInput
	if !bindJSON(c, &in) {
		return
	}
	course, err := h.courses.CreateCourse(c.Request.Context(), in)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"course": course})
}

// PUT /api/courses/:id
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	var in domain.CourseInput
	if !bindJSON(c, &in) {
		return
	}
	if err := h.courses.UpdateCourse(c.Request.Context(), c.Param("id"), in); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// DELETE /api/courses/:id
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	if err := h.courses.DeleteCourse(c.Request.Context(), c.Param("id")); err != nil {
		h.log.Error("DeleteCourse failed", "course_id", c.Param("id"), "error", err)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
