package handler

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/abjin/reward-closet/internal/domain"
	"github.com/abjin/reward-closet/internal/session"
)

const (
	contextKeyIdentity = "identity"
)

// RequestRecorder receives one observation per handled request.
type RequestRecorder interface {
	RecordRequest(method, route string, status int, d time.Duration)
}

// RequestLogger logs each HTTP request with structured fields and records it
// when rec is non-nil.
func RequestLogger(rec RequestRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// Resolve the status before logging; the error handler runs later.
				c.Error(err)
			}

			elapsed := time.Since(start)
			status := c.Response().Status
			slog.Info("http request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", status,
				"duration_ms", elapsed.Milliseconds(),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			)

			if rec != nil {
				route := c.Path()
				if route == "" {
					route = "unmatched"
				}
				rec.RecordRequest(c.Request().Method, route, status, elapsed)
			}
			return nil
		}
	}
}

// SessionAuth resolves the session cookie and stores the caller's identity in
// the echo context. Requests without a valid session pass through anonymous.
func SessionAuth(verifier session.Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(session.CookieName)
			if err == nil && cookie.Value != "" {
				if identity, ok := verifier.Verify(c.Request().Context(), cookie.Value); ok {
					c.Set(contextKeyIdentity, identity)
				}
			}
			return next(c)
		}
	}
}

// RequireSession rejects anonymous requests with domain.ErrUnauthorized.
func RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := GetIdentity(c); !ok {
			return domain.ErrUnauthorized
		}
		return next(c)
	}
}

// GetIdentity extracts the authenticated caller from echo context.
func GetIdentity(c echo.Context) (domain.Identity, bool) {
	identity, ok := c.Get(contextKeyIdentity).(domain.Identity)
	return identity, ok
}

var (
	protectedPages = []string{"/predict", "/donate", "/mypage"}
	guestPages     = []string{"/login", "/signup"}
)

// PageGuard redirects browser page requests based on session presence:
// protected pages send anonymous visitors to /login, and the login and signup
// pages send signed-in visitors home. It must run after SessionAuth.
func PageGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			_, signedIn := GetIdentity(c)

			switch {
			case !signedIn && slices.Contains(protectedPages, path):
				return c.Redirect(http.StatusSeeOther, "/login")
			case signedIn && slices.Contains(guestPages, path):
				return c.Redirect(http.StatusSeeOther, "/")
			}
			return next(c)
		}
	}
}
