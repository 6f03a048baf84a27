package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/abjin/reward-closet/internal/service"
)

// UserHandler serves the caller's profile.
type UserHandler struct {
	profiles *service.ProfileService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(profiles *service.ProfileService) *UserHandler {
	return &UserHandler{profiles: profiles}
}

type updateUserRequest struct {
	Nickname string `json:"nickname" validate:"max=50"`
}

// Get handles GET /api/user.
func (h *UserHandler) Get(c echo.Context) error {
	identity, _ := GetIdentity(c)
	profile, err := h.profiles.Get(c.Request().Context(), identity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// Update handles PUT /api/user.
func (h *UserHandler) Update(c echo.Context) error {
	var req updateUserRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	identity, _ := GetIdentity(c)
	user, err := h.profiles.UpdateNickname(c.Request().Context(), identity, req.Nickname)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
