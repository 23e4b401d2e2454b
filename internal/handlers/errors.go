package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/anonto42/discussion-tree/backend/internal/middleware"
	"github.com/anonto42/discussion-tree/backend/internal/services"
)

// serviceError turns a service failure into the HTTP error echo renders.
func serviceError(err error) error {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, svcErr.Message)
		case errors.Is(err, services.ErrForbidden):
			return echo.NewHTTPError(http.StatusForbidden, svcErr.Message)
		case errors.Is(err, services.ErrConflict):
			return echo.NewHTTPError(http.StatusConflict, svcErr.Message)
		}
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
}

func currentUserID(c echo.Context) (string, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return id, nil
}

func pathID(c echo.Context, what string) (string, error) {
	id := c.Param("id")
	if uuid.Validate(id) != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "Invalid "+what+" id")
	}
	return id, nil
}

// bindAndValidate binds the request into req and runs the registered validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return c.Validate(req)
}
