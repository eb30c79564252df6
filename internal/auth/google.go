package auth

//go:generate go run go.uber.org/mock/mockgen -source=google.go -destination=../../mocks/mock_google.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"
)

// ErrGoogleEmailUnverified is returned when Google has not verified the address.
var ErrGoogleEmailUnverified = errors.New("google account email is not verified")

// GoogleIdentity is the subset of a Google ID token the platform uses.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// GoogleVerifier validates Google ID tokens.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

// IDTokenVerifier checks tokens against Google's published keys.
type IDTokenVerifier struct {
	clientID string
}

// NewIDTokenVerifier returns a verifier bound to the OAuth client id.
func NewIDTokenVerifier(clientID string) *IDTokenVerifier {
	return &IDTokenVerifier{clientID: clientID}
}

// Verify implements GoogleVerifier.
func (v *IDTokenVerifier) Verify(ctx context.Context, token string) (*GoogleIdentity, error) {
	payload, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("validate google id token: %w", err)
	}
	return identityFromClaims(payload.Subject, payload.Claims)
}

func identityFromClaims(subject string, claims map[string]interface{}) (*GoogleIdentity, error) {
	id := &GoogleIdentity{Subject: subject}
	id.Email, _ = claims["email"].(string)
	id.Name, _ = claims["name"].(string)
	id.Picture, _ = claims["picture"].(string)

	if id.Email == "" {
		return nil, errors.New("google id token has no email claim")
	}
	if verified, ok := claims["email_verified"].(bool); ok && !verified {
		return nil, ErrGoogleEmailUnverified
	}
	return id, nil
}
