package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edulink-id/parent-portal-api/internal/dto"
	"github.com/edulink-id/parent-portal-api/internal/models"
	appErrors "github.com/edulink-id/parent-portal-api/pkg/errors"
	"github.com/edulink-id/parent-portal-api/pkg/response"
)

type postService interface {
	List(ctx context.Context) []models.Post
	Comments(ctx context.Context, postID string) []models.Comment
	Author(ctx context.Context, teacherID string) *models.Teacher
	ToggleLike(ctx context.Context, postID, userID string) error
	AddComment(ctx context.Context, postID, authorID, text string) (string, error)
}

// PostHandler serves the gallery feed's request/response surface. The live
// stream lives on FeedHandler.
type PostHandler struct {
	service postService
}

// NewPostHandler constructs the handler.
func NewPostHandler(service postService) *PostHandler {
	return &PostHandler{service: service}
}

// List godoc
// @Summary Gallery posts, newest first
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /posts [get]
func (h *PostHandler) List(c *gin.Context) {
	if _, ok := currentClaims(c); !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, h.service.List(c.Request.Context()))
}

// Comments godoc
// @Summary Comment thread for a post, oldest first
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} response.Envelope
// @Router /posts/{id}/comments [get]
func (h *PostHandler) Comments(c *gin.Context) {
	if _, ok := currentClaims(c); !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	postID := strings.TrimSpace(c.Param("id"))
	if postID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "post id required"))
		return
	}
	response.JSON(c, http.StatusOK, h.service.Comments(c.Request.Context(), postID))
}

// Author godoc
// @Summary Author record for a teacher ID
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [get]
func (h *PostHandler) Author(c *gin.Context) {
	if _, ok := currentClaims(c); !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	teacher := h.service.Author(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if teacher == nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	response.JSON(c, http.StatusOK, teacher)
}

// ToggleLike godoc
// @Summary Flip the caller's like on a post
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 204
// @Router /posts/{id}/like [post]
func (h *PostHandler) ToggleLike(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.ToggleLike(c.Request.Context(), strings.TrimSpace(c.Param("id")), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddComment godoc
// @Summary Append a comment to a post
// @Tags Posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param payload body dto.AddCommentRequest true "Comment"
// @Success 201 {object} response.Envelope
// @Router /posts/{id}/comments [post]
func (h *PostHandler) AddComment(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	id, err := h.service.AddComment(c.Request.Context(), strings.TrimSpace(c.Param("id")), claims.UserID, req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"id": id})
}
