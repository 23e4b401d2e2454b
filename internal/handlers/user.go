package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/discussion-tree/backend/internal/repositories"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	users repositories.UserRepository
}

func NewUserHandler(users repositories.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterPublicRoutes registers the author lookup
func (h *UserHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/users/:id", h.GetUser)
}

// RegisterProfileRoutes registers the routes about the current user
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
}

// GetUser returns the public view of a comment author
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := pathID(c, "user")
	if err != nil {
		return err
	}
	user, err := h.users.GetUserByID(c.Request().Context(), id)
	if err != nil {
		return userError(err)
	}
	return c.JSON(http.StatusOK, user.ToCompact())
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return userError(err)
	}
	return c.JSON(http.StatusOK, user)
}

func userError(err error) error {
	if errors.Is(err, repositories.ErrUserNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load user").SetInternal(err)
}
