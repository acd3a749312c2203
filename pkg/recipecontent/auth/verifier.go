package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth"
)

// Token verification errors
var (
	ErrEmptyToken     = errors.New("token is empty")
	ErrMissingSubject = errors.New("token has no subject")
)

// Verifier turns a bearer token into an identity
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// HMACVerifier verifies HS256 tokens signed with a shared secret. The sub
// claim is the user UID; an email claim is optional.
type HMACVerifier struct {
	ja *jwtauth.JWTAuth
}

// NewHMACVerifier creates a verifier for the given secret
func NewHMACVerifier(secret string) (*HMACVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &HMACVerifier{ja: jwtauth.New("HS256", []byte(secret), nil)}, nil
}

func (v *HMACVerifier) Verify(_ context.Context, raw string) (*Identity, error) {
	if raw == "" {
		return nil, ErrEmptyToken
	}

	token, err := jwtauth.VerifyToken(v.ja, raw)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}

	uid := token.Subject()
	if uid == "" {
		return nil, ErrMissingSubject
	}

	id := &Identity{UID: uid, Provider: "hmac"}
	if email, ok := token.Get("email"); ok {
		id.Email, _ = email.(string)
	}
	return id, nil
}

// Issue mints a token for uid that expires after ttl
func (v *HMACVerifier) Issue(uid string, ttl time.Duration) (string, error) {
	return v.IssueWithEmail(uid, "", ttl)
}

// IssueWithEmail mints a token carrying an email claim as well
func (v *HMACVerifier) IssueWithEmail(uid, email string, ttl time.Duration) (string, error) {
	if uid == "" {
		return "", ErrMissingSubject
	}

	now := time.Now()
	claims := map[string]interface{}{
		"sub": uid,
		"iat": now.Unix(),
	}
	if email != "" {
		claims["email"] = email
	}
	jwtauth.SetExpiry(claims, now.Add(ttl))

	_, signed, err := v.ja.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
