package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/abjin/reward-closet/internal/domain"
)

// ErrorResponse is the body of every failed API response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HTTPErrorHandler is the global error handler for echo.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, msg := mapError(err)
	if c.Request().Method == http.MethodHead {
		if noContentErr := c.NoContent(status); noContentErr != nil {
			slog.Error("failed to send error response", "error", noContentErr)
		}
		return
	}
	if jsonErr := c.JSON(status, ErrorResponse{Error: msg}); jsonErr != nil {
		slog.Error("failed to send error response", "error", jsonErr)
	}
}

func mapError(err error) (int, string) {
	// echo's own HTTP errors (404, 405, 413, 429...)
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		msg, _ := echoErr.Message.(string)
		if msg == "" {
			msg = http.StatusText(echoErr.Code)
		}
		return echoErr.Code, msg
	}

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, validationErr.Message
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, domain.ErrInvalidCredentials.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid request body"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "resource not found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, conflictMessage(err)
	case errors.Is(err, domain.ErrUpstream):
		slog.Error("upstream failure", "error", err)
		return http.StatusInternalServerError, domain.ErrUpstream.Error()
	default:
		slog.Error("unhandled error", "error", err)
		return http.StatusInternalServerError, "internal server error"
	}
}

// conflictMessage keeps the service's description ("email already
// registered") when there is one.
func conflictMessage(err error) string {
	if msg, ok := strings.CutPrefix(err.Error(), domain.ErrConflict.Error()+": "); ok && msg != "" {
		return msg
	}
	return domain.ErrConflict.Error()
}
