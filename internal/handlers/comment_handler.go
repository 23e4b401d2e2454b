package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/discussion-tree/backend/internal/models"
	"github.com/anonto42/discussion-tree/backend/internal/services"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// RegisterPublicRoutes registers the read-only comment routes
func (h *CommentHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/comments", h.ListComments)
	g.GET("/comments/:id", h.GetComment)
}

// RegisterCommentRoutes registers the routes that require an authenticated user
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/comments", h.CreateComment)
	g.PATCH("/comments/:id", h.UpdateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
	g.POST("/comments/:id/restore", h.RestoreComment)
}

// CreateComment posts a top-level comment or a reply
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.comments.Create(c.Request().Context(), req.Content, userID, req.ParentID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) GetComment(c echo.Context) error {
	id, err := pathID(c, "comment")
	if err != nil {
		return err
	}

	comment, err := h.comments.GetByID(c.Request().Context(), id)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, comment)
}

// ListComments pages through top-level comments, or the replies of parentId
func (h *CommentHandler) ListComments(c echo.Context) error {
	q := models.ListCommentsQuery{Page: defaultPage, Limit: defaultLimit}
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	page, err := h.comments.List(c.Request().Context(), q.ParentID, q.Page, q.Limit)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *CommentHandler) UpdateComment(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "comment")
	if err != nil {
		return err
	}

	var req models.UpdateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.comments.Edit(c.Request().Context(), id, req.Content, userID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "comment")
	if err != nil {
		return err
	}

	if err := h.comments.Delete(c.Request().Context(), id, userID); err != nil {
		return serviceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CommentHandler) RestoreComment(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "comment")
	if err != nil {
		return err
	}

	comment, err := h.comments.Restore(c.Request().Context(), id, userID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, comment)
}
