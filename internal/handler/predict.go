package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/abjin/reward-closet/internal/domain"
)

// Estimator turns an image URL into a condition and point estimate.
type Estimator interface {
	Estimate(ctx context.Context, imageURL string) (domain.Estimation, error)
}

// PredictHandler serves condition estimates.
type PredictHandler struct {
	estimator Estimator
}

// NewPredictHandler creates a new PredictHandler.
func NewPredictHandler(estimator Estimator) *PredictHandler {
	return &PredictHandler{estimator: estimator}
}

type predictRequest struct {
	ImageURL string `json:"imageUrl" validate:"required,max=2048"`
}

// Predict handles POST /api/predict.
func (h *PredictHandler) Predict(c echo.Context) error {
	var req predictRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	estimate, err := h.estimator.Estimate(c.Request().Context(), req.ImageURL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, estimate)
}
