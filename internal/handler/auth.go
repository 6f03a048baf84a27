package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/abjin/reward-closet/internal/domain"
	"github.com/abjin/reward-closet/internal/service"
	"github.com/abjin/reward-closet/internal/session"
)

// CookieConfig controls the attributes of the session cookie.
type CookieConfig struct {
	Secure bool
	TTL    time.Duration
}

func (cc CookieConfig) session(token string) *http.Cookie {
	return &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(cc.TTL.Seconds()),
	}
}

func (cc CookieConfig) expired() *http.Cookie {
	return &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	}
}

// SessionExchanger turns an identity provider token into a session cookie value.
type SessionExchanger interface {
	Exchange(ctx context.Context, idToken string) (string, error)
}

// AuthHandler handles the sign-up, login and logout endpoints. Without an
// AuthService only logout is served; sign-in then happens at the identity
// provider and the resulting ID token is exchanged for a session cookie.
type AuthHandler struct {
	auth      *service.AuthService
	exchanger SessionExchanger
	cookies   CookieConfig
}

// AuthOption configures an AuthHandler.
type AuthOption func(*AuthHandler)

// WithSessionExchanger serves POST /api/auth/session through x.
func WithSessionExchanger(x SessionExchanger) AuthOption {
	return func(h *AuthHandler) {
		h.exchanger = x
	}
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, cookies CookieConfig, opts ...AuthOption) *AuthHandler {
	h := &AuthHandler{auth: auth, cookies: cookies}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type signupRequest struct {
	Email    string `json:"email" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=72"`
	Nickname string `json:"nickname" validate:"required,max=50"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type sessionRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type authResponse struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user,omitempty"`
}

// PasswordEnabled reports whether sign-up and login are served.
func (h *AuthHandler) PasswordEnabled() bool {
	return h.auth != nil
}

// ExchangeEnabled reports whether POST /api/auth/session is served.
func (h *AuthHandler) ExchangeEnabled() bool {
	return h.exchanger != nil
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	user, token, err := h.auth.Register(c.Request().Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Nickname: req.Nickname,
	})
	if err != nil {
		return err
	}

	c.SetCookie(h.cookies.session(token))
	return c.JSON(http.StatusOK, authResponse{Success: true, User: user})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	user, token, err := h.auth.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	c.SetCookie(h.cookies.session(token))
	return c.JSON(http.StatusOK, authResponse{Success: true, User: user})
}

// Session handles POST /api/auth/session.
func (h *AuthHandler) Session(c echo.Context) error {
	var req sessionRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	cookie, err := h.exchanger.Exchange(c.Request().Context(), req.IDToken)
	if err != nil {
		return err
	}

	c.SetCookie(h.cookies.session(cookie))
	return c.JSON(http.StatusOK, authResponse{Success: true})
}

// Logout handles POST /api/auth/logout. It always succeeds.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.cookies.expired())
	return c.JSON(http.StatusOK, authResponse{Success: true})
}
