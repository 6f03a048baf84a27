package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/abjin/reward-closet/internal/domain"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// UserStore defines the user data access interface consumed by the services.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByProviderID(ctx context.Context, providerID string) (*domain.User, error)
	Create(ctx context.Context, user domain.User) (*domain.User, error)
	UpdateNickname(ctx context.Context, id, nickname string) (*domain.User, error)
	UpdatePoints(ctx context.Context, id string, points int) (*domain.User, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

// AuthService handles email/password registration and login.
type AuthService struct {
	users      UserStore
	tokens     TokenIssuer
	bcryptCost int
}

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

// WithBcryptCost overrides the bcrypt work factor.
func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) { s.bcryptCost = cost }
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, tokens TokenIssuer, opts ...AuthOption) *AuthService {
	s := &AuthService{users: users, tokens: tokens, bcryptCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// RegisterInput is the signup payload.
type RegisterInput struct {
	Email    string
	Password string
	Nickname string
}

// Register creates a password account with zero points and signs a session for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, string, error) {
	email := strings.TrimSpace(in.Email)
	nickname := strings.TrimSpace(in.Nickname)

	switch {
	case email == "":
		return nil, "", domain.NewValidationError("email", "all fields are required")
	case in.Password == "":
		return nil, "", domain.NewValidationError("password", "all fields are required")
	case nickname == "":
		return nil, "", domain.NewValidationError("nickname", "all fields are required")
	case len(in.Password) < MinPasswordLength:
		return nil, "", domain.NewValidationError("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, "", fmt.Errorf("%w: email already registered", domain.ErrConflict)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, "", fmt.Errorf("check email: %w", err)
	}

	hash, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.Create(ctx, domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: &hash,
		Nickname:     nickname,
		Points:       0,
	})
	if err != nil {
		return nil, "", fmt.Errorf("register user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate checks credentials and signs a session. Unknown email and
// wrong password both yield domain.ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, "", domain.NewValidationError("email", "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("find user: %w", err)
	}

	if user.PasswordHash == nil || !VerifyPassword(password, *user.PasswordHash) {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
