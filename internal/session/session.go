// Package session verifies the session cookie carried by browser requests.
//
// Two strategies exist: self-issued HS256 tokens (JWT) and Firebase session
// cookies minted by the hosted identity provider. Exactly one is wired per
// deployment, selected by configuration.
package session

import (
	"context"

	"github.com/abjin/reward-closet/internal/domain"
)

// CookieName is the cookie carrying the session for both strategies.
const CookieName = "rwd-session"

// Verifier resolves a session value to the caller's identity. Every failure
// (malformed, expired, bad signature, revoked) reports ok=false.
type Verifier interface {
	Verify(ctx context.Context, token string) (identity domain.Identity, ok bool)
}
