package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/abjin/reward-closet/internal/domain"
)

// MinNicknameLength is the shortest accepted nickname, in characters.
const MinNicknameLength = 2

// Profile is a user with donation counts, as shown on the profile page.
type Profile struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	Nickname           string    `json:"nickname"`
	Points             int       `json:"points"`
	CreatedAt          time.Time `json:"createdAt"`
	TotalDonations     int       `json:"totalDonations"`
	CompletedDonations int       `json:"completedDonations"`
}

// ProfileService provisions and edits user profiles.
type ProfileService struct {
	users     UserStore
	donations *DonationService
}

// NewProfileService creates a new ProfileService.
func NewProfileService(users UserStore, donations *DonationService) *ProfileService {
	return &ProfileService{users: users, donations: donations}
}

// GetOrCreate returns the caller's profile, provisioning it with zero points
// on first access.
func (s *ProfileService) GetOrCreate(ctx context.Context, identity domain.Identity) (*domain.User, error) {
	user, err := findUser(ctx, s.users, identity)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	nickname := strings.TrimSpace(identity.Nickname)
	if nickname == "" {
		nickname = domain.DefaultNickname
	}

	fresh := domain.User{
		ID:       identity.UserID,
		Email:    identity.Email,
		Nickname: nickname,
		Points:   0,
	}
	if fresh.ID == "" {
		fresh.ID = uuid.NewString()
	}
	if identity.ProviderID != "" {
		providerID := identity.ProviderID
		fresh.ProviderID = &providerID
	}

	created, err := s.users.Create(ctx, fresh)
	if err != nil {
		return nil, fmt.Errorf("provision user: %w", err)
	}
	slog.InfoContext(ctx, "user profile provisioned", "user_id", created.ID)
	return created, nil
}

// Get returns the caller's profile with a reconciled point balance.
func (s *ProfileService) Get(ctx context.Context, identity domain.Identity) (*Profile, error) {
	user, err := s.GetOrCreate(ctx, identity)
	if err != nil {
		return nil, err
	}

	user, err = s.donations.ReconcileBalance(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("reconcile balance: %w", err)
	}

	counts, err := s.donations.Counts(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		ID:                 user.ID,
		Email:              user.Email,
		Nickname:           user.Nickname,
		Points:             user.Points,
		CreatedAt:          user.CreatedAt,
		TotalDonations:     counts.Total,
		CompletedDonations: counts.Completed,
	}, nil
}

// UpdateNickname stores the trimmed nickname.
func (s *ProfileService) UpdateNickname(ctx context.Context, identity domain.Identity, nickname string) (*domain.User, error) {
	nickname = strings.TrimSpace(nickname)
	if utf8.RuneCountInString(nickname) < MinNicknameLength {
		return nil, domain.NewValidationError("nickname",
			fmt.Sprintf("nickname must be at least %d characters", MinNicknameLength))
	}

	user, err := s.GetOrCreate(ctx, identity)
	if err != nil {
		return nil, err
	}
	return s.users.UpdateNickname(ctx, user.ID, nickname)
}
