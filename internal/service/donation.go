package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/abjin/reward-closet/internal/domain"
)

// DonationStore defines the donation data access interface.
type DonationStore interface {
	Create(ctx context.Context, d domain.Donation) (*domain.Donation, error)
	FindByID(ctx context.Context, id string) (*domain.Donation, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Donation, error)
	SumCompletedPoints(ctx context.Context, userID string) (int, error)
	CountByUser(ctx context.Context, userID string) (domain.DonationCounts, error)
	Transition(ctx context.Context, id string, apply func(current domain.Donation) (domain.Donation, error)) (*domain.Donation, error)
}

// DonationRecorder receives lifecycle events for metrics.
type DonationRecorder interface {
	RecordDonationCreated()
	RecordTransition(status domain.DonationStatus)
}

type nopDonationRecorder struct{}

func (nopDonationRecorder) RecordDonationCreated()                 {}
func (nopDonationRecorder) RecordTransition(domain.DonationStatus) {}

// DonationService owns the donation lifecycle and point balances.
type DonationService struct {
	users     UserStore
	donations DonationStore
	recorder  DonationRecorder
}

// NewDonationService creates a new DonationService. recorder may be nil.
func NewDonationService(users UserStore, donations DonationStore, recorder DonationRecorder) *DonationService {
	if recorder == nil {
		recorder = nopDonationRecorder{}
	}
	return &DonationService{users: users, donations: donations, recorder: recorder}
}

// CreateDonationInput is an estimation plus pickup details.
type CreateDonationInput struct {
	ImageURL        string
	ItemType        string
	Condition       domain.Condition
	EstimatedPoints int
	PickupMethod    domain.PickupMethod
	Address         string
	Notes           string
}

func (in CreateDonationInput) validate() error {
	required := []struct{ field, value string }{
		{"imageUrl", in.ImageURL},
		{"itemType", in.ItemType},
		{"condition", string(in.Condition)},
		{"pickupMethod", string(in.PickupMethod)},
		{"address", in.Address},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return domain.NewValidationError(r.field, "missing required field")
		}
	}
	if !in.Condition.Valid() {
		return domain.NewValidationError("condition", "unknown condition")
	}
	if !in.PickupMethod.Valid() {
		return domain.NewValidationError("pickupMethod", "unknown pickup method")
	}
	if in.EstimatedPoints < 0 {
		return domain.NewValidationError("estimatedPoints", "must not be negative")
	}
	return nil
}

// Create records a PENDING donation for the caller. Condition and pickup
// method are matched case-insensitively.
func (s *DonationService) Create(ctx context.Context, identity domain.Identity, in CreateDonationInput) (*domain.Donation, error) {
	in.Condition = domain.Condition(strings.ToUpper(strings.TrimSpace(string(in.Condition))))
	in.PickupMethod = domain.PickupMethod(strings.ToUpper(strings.TrimSpace(string(in.PickupMethod))))
	if err := in.validate(); err != nil {
		return nil, err
	}

	owner, err := findUser(ctx, s.users, identity)
	if err != nil {
		return nil, err
	}

	donation, err := s.donations.Create(ctx, domain.Donation{
		ID:              uuid.NewString(),
		UserID:          owner.ID,
		ImageURL:        strings.TrimSpace(in.ImageURL),
		ItemType:        strings.TrimSpace(in.ItemType),
		Condition:       in.Condition,
		EstimatedPoints: in.EstimatedPoints,
		PickupMethod:    in.PickupMethod,
		Address:         strings.TrimSpace(in.Address),
		Notes:           strings.TrimSpace(in.Notes),
		Status:          domain.DonationStatusPending,
	})
	if err != nil {
		return nil, err
	}

	s.recorder.RecordDonationCreated()
	slog.InfoContext(ctx, "donation created",
		"donation_id", donation.ID,
		"user_id", owner.ID,
		"condition", donation.Condition,
	)
	if !donation.Condition.Donatable() {
		slog.WarnContext(ctx, "donation below resale grade",
			"donation_id", donation.ID,
			"condition", donation.Condition,
			"estimated_points", donation.EstimatedPoints,
		)
	}
	return donation, nil
}

// List returns the caller's donations, newest first.
func (s *DonationService) List(ctx context.Context, identity domain.Identity) ([]domain.Donation, error) {
	owner, err := findUser(ctx, s.users, identity)
	if err != nil {
		return nil, err
	}
	return s.donations.ListByUser(ctx, owner.ID)
}

// ReconcileBalance recomputes the user's points from completed donations and
// persists the value only when it differs from the stored one.
func (s *DonationService) ReconcileBalance(ctx context.Context, user *domain.User) (*domain.User, error) {
	total, err := s.donations.SumCompletedPoints(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if total == user.Points {
		return user, nil
	}

	slog.InfoContext(ctx, "reconciling point balance",
		"user_id", user.ID,
		"stored", user.Points,
		"computed", total,
	)
	return s.users.UpdatePoints(ctx, user.ID, total)
}

// Counts returns total and completed donation counts for the user.
func (s *DonationService) Counts(ctx context.Context, userID string) (domain.DonationCounts, error) {
	return s.donations.CountByUser(ctx, userID)
}

// Advance moves a donation to next. actualPoints may be recorded on any
// transition except a rejection and are never overwritten afterwards;
// entering COMPLETED requires them to be known. The owner's balance is
// reconciled in the same transaction.
func (s *DonationService) Advance(ctx context.Context, donationID string, next domain.DonationStatus, actualPoints *int) (*domain.Donation, error) {
	if !next.Valid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", next))
	}
	if actualPoints != nil {
		if *actualPoints < 0 {
			return nil, domain.NewValidationError("actualPoints", "must not be negative")
		}
		if next == domain.DonationStatusRejected {
			return nil, domain.NewValidationError("actualPoints", "cannot be awarded to a rejected donation")
		}
	}

	updated, err := s.donations.Transition(ctx, donationID, func(current domain.Donation) (domain.Donation, error) {
		if !current.Status.CanTransitionTo(next) {
			return domain.Donation{}, fmt.Errorf("%w: cannot move donation from %s to %s",
				domain.ErrConflict, current.Status, next)
		}

		switch {
		case actualPoints == nil:
		case current.ActualPoints == nil:
			points := *actualPoints
			current.ActualPoints = &points
		case *current.ActualPoints != *actualPoints:
			return domain.Donation{}, fmt.Errorf("%w: actual points already recorded", domain.ErrConflict)
		}
		if next == domain.DonationStatusCompleted && current.ActualPoints == nil {
			return domain.Donation{}, domain.NewValidationError("actualPoints", "required to complete a donation")
		}

		current.Status = next
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	s.recorder.RecordTransition(updated.Status)
	slog.InfoContext(ctx, "donation status changed",
		"donation_id", updated.ID,
		"status", updated.Status,
	)
	return updated, nil
}

// findUser resolves the profile behind identity without provisioning one.
func findUser(ctx context.Context, users UserStore, identity domain.Identity) (*domain.User, error) {
	var (
		user *domain.User
		err  error
	)
	switch {
	case identity.UserID != "":
		user, err = users.FindByID(ctx, identity.UserID)
	case identity.ProviderID != "":
		user, err = users.FindByProviderID(ctx, identity.ProviderID)
	default:
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: user profile", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}
