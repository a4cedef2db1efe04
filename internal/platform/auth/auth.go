// Package auth verifies Firebase ID tokens for operations that declare a
// bearer security requirement.
package auth

import (
	"context"
	"errors"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
)

var (
	ErrNoToken      = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
	// ErrUnavailable means signing keys could not be fetched; callers should retry later.
	ErrUnavailable = errors.New("token verification unavailable")
)

// Principal is the authenticated caller.
type Principal struct {
	UID   string
	Email string
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// idTokenVerifier is the subset of *fbauth.Client used here.
type idTokenVerifier interface {
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseVerifier checks ID tokens with the Firebase Admin SDK.
type FirebaseVerifier struct {
	client idTokenVerifier
}

func NewFirebaseVerifier(client *fbauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*Principal, error) {
	token, err := v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return nil, classify(err)
	}
	email, _ := token.Claims["email"].(string)
	return &Principal{UID: token.UID, Email: email}, nil
}

func classify(err error) error {
	switch {
	case fbauth.IsCertificateFetchFailed(err):
		return ErrUnavailable
	case fbauth.IsIDTokenExpired(err):
		return ErrTokenExpired
	case fbauth.IsIDTokenRevoked(err):
		return ErrTokenRevoked
	default:
		return ErrInvalidToken
	}
}

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrNoToken
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrInvalidToken
	}
	return token, nil
}

// StaticVerifier returns a fixed principal or error. Used in tests and local
// development.
type StaticVerifier struct {
	Principal *Principal
	Err       error
}

func (s StaticVerifier) Verify(context.Context, string) (*Principal, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Principal, nil
}

var (
	_ Verifier = (*FirebaseVerifier)(nil)
	_ Verifier = StaticVerifier{}
)
