// Package identity verifies third-party ID tokens (Firebase, Google) and turns
// them into principals.
package identity

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

// Principal is a verified external identity.
type Principal struct {
	Uid       string
	Email     string
	FirstName string
	LastName  string
	Admin     bool
}

type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Principal, error)
}

type FirebaseVerifier struct {
	Client *auth.Client
}

// InitializeFirebase initializes the Firebase Admin SDK from a service account file.
func InitializeFirebase(ctx context.Context, credentialsPath string) (*FirebaseVerifier, error) {

	if credentialsPath == "" {
		return nil, errors.New("FIREBASE_CREDENTIALS_PATH is required")
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Auth client: %w", err)
	}

	return &FirebaseVerifier{Client: authClient}, nil

}

func (v *FirebaseVerifier) Verify(ctx context.Context, rawToken string) (*Principal, error) {

	token, err := v.Client.VerifyIDToken(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	return claimsPrincipal(token.UID, token.Claims)

}

// GoogleVerifier validates Google sign-in ID tokens for one OAuth client.
type GoogleVerifier struct {
	ClientId string
}

func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*Principal, error) {

	payload, err := idtoken.Validate(ctx, rawToken, v.ClientId)
	if err != nil {
		return nil, err
	}

	return claimsPrincipal(payload.Subject, payload.Claims)

}

func claimsPrincipal(uid string, claims map[string]any) (*Principal, error) {

	if uid == "" {
		return nil, errors.New("token missing subject")
	}

	p := &Principal{Uid: uid}
	p.Email, _ = claims["email"].(string)
	p.FirstName, _ = claims["given_name"].(string)
	p.LastName, _ = claims["family_name"].(string)
	p.Admin, _ = claims["admin"].(bool)

	return p, nil

}
