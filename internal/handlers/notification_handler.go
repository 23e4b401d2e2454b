package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/discussion-tree/backend/internal/models"
	"github.com/anonto42/discussion-tree/backend/internal/pagination"
	"github.com/anonto42/discussion-tree/backend/internal/services"
)

// NotificationHandler serves the reply notifications of the current user
type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications/unread", h.GetUnread)
	g.GET("/notifications/all", h.GetAll)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.POST("/notifications/:id/read", h.MarkAsRead)
	g.POST("/notifications/read-all", h.MarkAllAsRead)
}

type listFunc func(c echo.Context, userID string, page, limit int) (pagination.Page[models.Notification], error)

func (h *NotificationHandler) list(c echo.Context, fetch listFunc) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	q := models.ListNotificationsQuery{Page: defaultPage, Limit: defaultLimit}
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	page, err := fetch(c, userID, q.Page, q.Limit)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *NotificationHandler) GetUnread(c echo.Context) error {
	return h.list(c, func(c echo.Context, userID string, page, limit int) (pagination.Page[models.Notification], error) {
		return h.notifications.ListUnread(c.Request().Context(), userID, page, limit)
	})
}

func (h *NotificationHandler) GetAll(c echo.Context) error {
	return h.list(c, func(c echo.Context, userID string, page, limit int) (pagination.Page[models.Notification], error) {
		return h.notifications.ListAll(c.Request().Context(), userID, page, limit)
	})
}

func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	count, err := h.notifications.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": count})
}

func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "notification")
	if err != nil {
		return err
	}

	notification, err := h.notifications.MarkAsRead(c.Request().Context(), id, userID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, notification)
}

func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	updated, err := h.notifications.MarkAllAsRead(c.Request().Context(), userID)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": updated})
}
