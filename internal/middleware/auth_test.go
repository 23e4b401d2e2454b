package middleware

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/discussion-tree/backend/internal/models"
)

func whoAmI(c echo.Context) error {
	id, ok := UserID(c)
	if !ok {
		return c.NoContent(http.StatusTeapot)
	}
	return c.String(http.StatusOK, id)
}

func serve(mw echo.MiddlewareFunc, authorization string) *httptest.ResponseRecorder {
	e := echo.New()
	e.GET("/me", whoAmI, mw)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthMiddleware(t *testing.T) {
	const secret = "test-secret"
	user := &models.User{ID: "8d0c6f5e-1111-4a4e-9a53-5d1f2c3b4a59", Email: "alice@example.com"}
	mw := JWTAuthMiddleware(secret)

	valid, err := IssueToken(user, secret, time.Hour, time.Now())
	require.NoError(t, err)
	expired, err := IssueToken(user, secret, time.Hour, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	foreign, err := IssueToken(user, "other-secret", time.Hour, time.Now())
	require.NoError(t, err)

	rec := serve(mw, "Bearer "+valid)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.ID, rec.Body.String())

	for name, header := range map[string]string{
		"missing":      "",
		"not bearer":   "Basic " + valid,
		"garbage":      "Bearer not.a.jwt",
		"expired":      "Bearer " + expired,
		"wrong secret": "Bearer " + foreign,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, serve(mw, header).Code)
		})
	}
}

type fakeVerifier map[string]*auth.Token

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := f[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("token rejected")
}

type fakeResolver struct {
	err  error
	seen []string
}

func (f *fakeResolver) GetOrCreateFirebaseUser(_ context.Context, uid, email string, verified bool) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.seen = append(f.seen, fmt.Sprintf("%s/%s/%t", uid, email, verified))
	return &models.User{ID: "local-" + uid, Email: email}, nil
}

func TestFirebaseAuthMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	verifier := fakeVerifier{
		"good":       {UID: "fb-1", Claims: map[string]interface{}{"email": "alice@example.com", "email_verified": true}},
		"unverified": {UID: "fb-2", Claims: map[string]interface{}{"email": "alice@example.com"}},
		"phone":      {UID: "fb-3", Claims: map[string]interface{}{"phone_number": "+15550100"}},
	}

	resolver := &fakeResolver{}
	rec := serve(FirebaseAuthMiddleware(verifier, resolver, logger), "Bearer good")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "local-fb-1", rec.Body.String())
	assert.Equal(t, []string{"fb-1/alice@example.com/true"}, resolver.seen)

	serve(FirebaseAuthMiddleware(verifier, resolver, logger), "Bearer unverified")
	serve(FirebaseAuthMiddleware(verifier, resolver, logger), "Bearer phone")
	assert.Equal(t, []string{
		"fb-1/alice@example.com/true",
		"fb-2/alice@example.com/false",
		"fb-3//false",
	}, resolver.seen)

	rec = serve(FirebaseAuthMiddleware(verifier, resolver, logger), "Bearer bad")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	failing := &fakeResolver{err: errors.New("db down")}
	rec = serve(FirebaseAuthMiddleware(verifier, failing, logger), "Bearer good")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
