package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/abjin/reward-closet/internal/domain"
	"github.com/abjin/reward-closet/internal/service"
)

// DonationHandler serves the caller's donations.
type DonationHandler struct {
	donations *service.DonationService
}

// NewDonationHandler creates a new DonationHandler.
func NewDonationHandler(donations *service.DonationService) *DonationHandler {
	return &DonationHandler{donations: donations}
}

// Field presence and enum membership are checked by the service so that every
// missing field reports the same way regardless of entry point.
type createDonationRequest struct {
	ImageURL        string `json:"imageUrl" validate:"max=2048"`
	ItemType        string `json:"itemType" validate:"max=100"`
	Condition       string `json:"condition"`
	EstimatedPoints int    `json:"estimatedPoints"`
	PickupMethod    string `json:"pickupMethod"`
	Address         string `json:"address" validate:"max=500"`
	Notes           string `json:"notes" validate:"max=1000"`
}

// Create handles POST /api/donations.
func (h *DonationHandler) Create(c echo.Context) error {
	var req createDonationRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	identity, _ := GetIdentity(c)
	donation, err := h.donations.Create(c.Request().Context(), identity, service.CreateDonationInput{
		ImageURL:        req.ImageURL,
		ItemType:        req.ItemType,
		Condition:       domain.Condition(req.Condition),
		EstimatedPoints: req.EstimatedPoints,
		PickupMethod:    domain.PickupMethod(req.PickupMethod),
		Address:         req.Address,
		Notes:           req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, donation)
}

// List handles GET /api/donations.
func (h *DonationHandler) List(c echo.Context) error {
	identity, _ := GetIdentity(c)
	donations, err := h.donations.List(c.Request().Context(), identity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, donations)
}
