package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const userIDKey = "userID"

// UserID returns the authenticated user set by one of the auth middlewares.
func UserID(c echo.Context) (string, bool) {
	id, ok := c.Get(userIDKey).(string)
	return id, ok && id != ""
}

func setUserID(c echo.Context, id string) {
	c.Set(userIDKey, id)
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Authorization header must be in Bearer format")
	}
	return parts[1], nil
}
