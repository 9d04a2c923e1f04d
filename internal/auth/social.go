package auth

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
)

var ErrSocialNotConfigured = errors.New("social auth is not configured")

// SocialIdentity is what a verified third-party sign-in tells us about the user.
type SocialIdentity struct {
	UID     string
	Email   string
	Name    string
	Picture string
}

type SocialVerifier interface {
	Verify(ctx context.Context, idToken string) (*SocialIdentity, error)
}

type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

type firebaseVerifier struct {
	client idTokenVerifier
}

// NewFirebaseVerifier builds a verifier for Firebase ID tokens of projectID.
func NewFirebaseVerifier(ctx context.Context, projectID string) (SocialVerifier, error) {
	if projectID == "" {
		return nil, ErrSocialNotConfigured
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &firebaseVerifier{client: client}, nil
}

func (v *firebaseVerifier) Verify(ctx context.Context, idToken string) (*SocialIdentity, error) {
	if idToken == "" {
		return nil, ErrMissingToken
	}
	tok, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id := &SocialIdentity{UID: tok.UID}
	id.Email, _ = tok.Claims["email"].(string)
	id.Name, _ = tok.Claims["name"].(string)
	id.Picture, _ = tok.Claims["picture"].(string)
	if id.Email == "" {
		return nil, fmt.Errorf("%w: token has no email", ErrInvalidToken)
	}
	if verified, _ := tok.Claims["email_verified"].(bool); !verified {
		return nil, fmt.Errorf("%w: email is not verified", ErrInvalidToken)
	}
	if id.Name == "" {
		id.Name = id.Email
	}
	return id, nil
}

// DisabledVerifier rejects every sign-in; used when no Firebase project is configured.
type DisabledVerifier struct{}

func (DisabledVerifier) Verify(context.Context, string) (*SocialIdentity, error) {
	return nil, ErrSocialNotConfigured
}
