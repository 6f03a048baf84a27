package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"

	"github.com/abjin/reward-closet/internal/domain"
)

// SessionCookieVerifier is the subset of *auth.Client used here.
type SessionCookieVerifier interface {
	VerifySessionCookie(ctx context.Context, sessionCookie string) (*auth.Token, error)
}

// SessionCookieIssuer is the subset of *auth.Client that mints session cookies.
type SessionCookieIssuer interface {
	SessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
}

// FirebaseExchanger trades a freshly issued Firebase ID token for a session
// cookie that FirebaseVerifier later accepts.
type FirebaseExchanger struct {
	client SessionCookieIssuer
	ttl    time.Duration
}

// NewFirebaseExchanger returns an exchanger minting cookies valid for ttl.
func NewFirebaseExchanger(client SessionCookieIssuer, ttl time.Duration) *FirebaseExchanger {
	return &FirebaseExchanger{client: client, ttl: ttl}
}

// Exchange mints a session cookie for idToken. A rejected token yields
// domain.ErrUnauthorized.
func (x *FirebaseExchanger) Exchange(ctx context.Context, idToken string) (string, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return "", domain.NewValidationError("idToken", "required")
	}

	cookie, err := x.client.SessionCookie(ctx, idToken, x.ttl)
	if err != nil {
		slog.WarnContext(ctx, "firebase id token rejected", "error", err)
		return "", fmt.Errorf("%w: invalid id token", domain.ErrUnauthorized)
	}
	return cookie, nil
}

// FirebaseVerifier delegates session validity to Firebase Authentication.
type FirebaseVerifier struct {
	client SessionCookieVerifier
}

// NewFirebaseVerifier wraps an already constructed Firebase auth client.
func NewFirebaseVerifier(client SessionCookieVerifier) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

// NewFirebaseClient builds a Firebase auth client for projectID. When
// credentialsFile is empty, application default credentials are used.
func NewFirebaseClient(ctx context.Context, projectID, credentialsFile string) (*auth.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read firebase credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, "https://www.googleapis.com/auth/cloud-platform")
		if err != nil {
			return nil, fmt.Errorf("parse firebase credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return client, nil
}

// Verify implements Verifier.
func (v *FirebaseVerifier) Verify(ctx context.Context, cookie string) (domain.Identity, bool) {
	if cookie == "" {
		return domain.Identity{}, false
	}

	token, err := v.client.VerifySessionCookie(ctx, cookie)
	if err != nil {
		slog.Debug("firebase session rejected", "error", err)
		return domain.Identity{}, false
	}

	identity := domain.Identity{ProviderID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		identity.Email = email
	}
	for _, key := range []string{"nickname", "name"} {
		if name, ok := token.Claims[key].(string); ok && name != "" {
			identity.Nickname = name
			break
		}
	}
	return identity, true
}
