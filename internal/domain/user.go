package domain

import "time"

// User represents a donor profile.
type User struct {
	ID           string    `json:"id" db:"id"`
	ProviderID   *string   `json:"-" db:"provider_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash *string   `json:"-" db:"password_hash"`
	Nickname     string    `json:"nickname" db:"nickname"`
	Points       int       `json:"points" db:"points"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"-" db:"updated_at"`
}

// Identity is the authenticated caller as established by a session verifier.
// ProviderID is set when the session was issued by the hosted identity
// provider; UserID is set for self-issued sessions.
type Identity struct {
	UserID     string
	ProviderID string
	Email      string
	Nickname   string
}

// DefaultNickname is used when a provisioned profile has no provider metadata.
const DefaultNickname = "User"
