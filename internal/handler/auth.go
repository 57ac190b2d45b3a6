package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/leoli101/flight-reservation/internal/middleware"
	"github.com/leoli101/flight-reservation/internal/service"
)

// AuthHandler exposes account creation and login over HTTP.  Login
// authenticates the caller's session, so later reservation calls on the
// same session token act on behalf of the logged-in user.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// ----- DTOs -----

type registerReq struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	InitAmount int    `json:"init_amount"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles POST /v1/auth/register.  It creates the user with the
// requested starting balance and returns 201 on success.  The new account
// is not logged in; clients call /v1/auth/login next.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Auth.CreateAccount(ctx, req.Username, req.Password, req.InitAmount); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "initial amount must be non-negative"})
		case errors.Is(err, service.ErrDuplicateUser):
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":  fmt.Sprintf("Created user %s", req.Username),
		"username": req.Username,
	})
}

// Login handles POST /v1/auth/login.  It verifies the password and binds
// the username to the caller's session.  A session that already carries
// an identity cannot log in again; bad credentials and unknown users are
// reported identically.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	sess := middleware.CurrentSession(c)
	if sess == nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "no session"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Auth.Login(ctx, sess, req.Username, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyLoggedIn):
			return c.JSON(http.StatusConflict, echo.Map{"error": "already logged in"})
		case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrBadCredentials):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login failed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":  fmt.Sprintf("Logged in as %s", req.Username),
		"username": req.Username,
	})
}
