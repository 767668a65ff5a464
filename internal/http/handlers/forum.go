package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursehall-backend/internal/domain"
	"github.com/yungbote/coursehall-backend/internal/http/response"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
	"github.com/yungbote/coursehall-backend/internal/services"
)

const defaultPageSize = 20

type ForumHandler struct {
	log   *logger.Logger
	board services.ForumBoardService
}

func NewForumHandler(log *logger.Logger, board services.ForumBoardService) *ForumHandler {
	return &ForumHandler{
		log:   log.With("handler", "ForumHandler"),
		board: board,
	}
}

// GET /api/forum/posts?filter=&courseId=&lessonId=&limit=
func (h *ForumHandler) ListPosts(c *gin.Context) {
	q := services.BoardQuery{
		Filter:   services.BoardFilter(strings.ToLower(strings.TrimSpace(c.Query("filter")))),
		CourseID: strings.TrimSpace(c.Query("courseId")),
		LessonID: strings.TrimSpace(c.Query("lessonId")),
		Limit:    queryInt(c, "limit", 0),
	}
	posts, err := h.board.ListPosts(c.Request.Context(), q)
	if err != nil {
		h.log.Warn("ListPosts failed", "filter", q.Filter, "error", err)
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"posts": posts})
}

// GET /api/forum/posts/page?cursor=&size=
func (h *ForumHandler) PagePosts(c *gin.Context) {
	page, err := h.board.Page(c.Request.Context(), c.Query("cursor"), queryInt(c, "size", defaultPageSize))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /api/forum/search?q=
func (h *ForumHandler) Search(c *gin.Context) {
	posts, err := h.board.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"posts": posts})
}

// GET /api/forum/posts/:id
func (h *ForumHandler) GetPost(c *gin.Context) {
	post, err := h.board.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"post": post})
}

// GET /api/forum/posts/:id/replies
func (h *ForumHandler) ListReplies(c *gin.Context) {
	replies, err := h.board.ListReplies(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"replies": replies})
}

type createPostRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	CourseID string `json:"courseId"`
	LessonID string `json:"lessonId"`
}

// POST /api/forum/posts
func (h *ForumHandler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if !bindJSON(c, &req) {
		return
	}
	post, err := h.board.CreatePost(c.Request.Context(), domain.NewPost{
		Title:    req.Title,
		Content:  req.Content,
		CourseID: strings.TrimSpace(req.CourseID),
		LessonID: strings.TrimSpace(req.LessonID),
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"post": post})
}

// PATCH /api/forum/posts/:id
func (h *ForumHandler) UpdatePost(c *gin.Context) {
	var patch domain.PostPatch
	if !bindJSON(c, &patch) {
		return
	}
	if err := h.board.UpdatePost(c.Request.Context(), c.Param("id"), patch); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

type replyRequest struct {
	Content string `json:"content"`
}

// POST /api/forum/posts/:id/replies
func (h *ForumHandler) Reply(c *gin.Context) {
	var req replyRequest
	if !bindJSON(c, &req) {
		return
	}
	reply, err := h.board.Reply(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"reply": reply})
}

// PATCH /api/forum/replies/:id
func (h *ForumHandler) UpdateReply(c *gin.Context) {
	var req replyRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.board.UpdateReply(c.Request.Context(), c.Param("id"), req.Content); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

type flagRequest struct {
	ContentType string `json:"contentType" binding:"required"`
	ContentID   string `json:"contentId" binding:"required"`
	Reason      string `json:"reason"`
}

// POST /api/forum/flags
func (h *ForumHandler) Flag(c *gin.Context) {
	var req flagRequest
	if !bindJSON(c, &req) {
		return
	}
	flag, err := h.board.Flag(c.Request.Context(), domain.ContentType(strings.ToLower(req.ContentType)), req.ContentID, req.Reason)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"flag": flag})
}

// GET /api/forum/can-reply
func (h *ForumHandler) CanReply(c *gin.Context) {
	response.RespondOK(c, gin.H{"canReply": h.board.CanReply(c.Request.Context())})
}
