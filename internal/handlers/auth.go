package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/anonto42/discussion-tree/backend/internal/middleware"
	"github.com/anonto42/discussion-tree/backend/internal/models"
	"github.com/anonto42/discussion-tree/backend/internal/repositories"
)

// AuthHandler handles local registration and login
type AuthHandler struct {
	users     repositories.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthHandler(users repositories.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{users: users, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
}

type authResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"accessToken"`
}

// Register creates a local account and returns an access token for it
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password").SetInternal(err)
	}

	user := &models.User{
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hashed),
	}
	if err := h.users.CreateUser(c.Request().Context(), user); err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			return echo.NewHTTPError(http.StatusConflict, "User with this email already registered")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create user").SetInternal(err)
	}

	return h.respondWithToken(c, http.StatusCreated, user)
}

// Login exchanges email and password for an access token
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.users.GetUserByEmail(c.Request().Context(), strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load user").SetInternal(err)
	}
	if user.PasswordHash == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	return h.respondWithToken(c, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(c echo.Context, status int, user *models.User) error {
	token, err := middleware.IssueToken(user, h.jwtSecret, h.tokenTTL, time.Now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token").SetInternal(err)
	}
	return c.JSON(status, authResponse{User: user, AccessToken: token})
}
