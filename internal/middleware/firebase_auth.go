package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"github.com/anonto42/discussion-tree/backend/internal/models"
)

// TokenVerifier is satisfied by *auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseUserResolver maps a Firebase identity to a local user, creating it on first sight.
type FirebaseUserResolver interface {
	GetOrCreateFirebaseUser(ctx context.Context, firebaseUID, email string, emailVerified bool) (*models.User, error)
}

// FirebaseAuthMiddleware verifies Firebase ID tokens and exposes the matching local user id.
func FirebaseAuthMiddleware(verifier TokenVerifier, users FirebaseUserResolver, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			idToken, err := bearerToken(c)
			if err != nil {
				return err
			}

			ctx := c.Request().Context()
			token, err := verifier.VerifyIDToken(ctx, idToken)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token")
			}

			email, _ := token.Claims["email"].(string)
			verified, _ := token.Claims["email_verified"].(bool)
			user, err := users.GetOrCreateFirebaseUser(ctx, token.UID, email, verified)
			if err != nil {
				logger.Error("resolving firebase user", "firebase_uid", token.UID, "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to resolve user")
			}

			setUserID(c, user.ID)
			return next(c)
		}
	}
}
