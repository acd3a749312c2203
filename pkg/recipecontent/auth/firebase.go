package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// GoogleCertsURL serves the x509 certificates that sign Firebase ID tokens
const GoogleCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

const maxUIDLength = 128

// ErrUnknownKey is returned when a token names a signing key that is not published
var ErrUnknownKey = errors.New("unknown signing key")

// KeySource resolves a token's kid header to its RSA public key
type KeySource interface {
	PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// StaticKeySource serves a fixed set of keys
type StaticKeySource map[string]*rsa.PublicKey

func (s StaticKeySource) PublicKey(_ context.Context, kid string) (*rsa.PublicKey, error) {
	key, ok := s[kid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, kid)
	}
	return key, nil
}

// MinKeyRefreshInterval bounds how often GoogleKeySource refetches the
// certificates for a kid it has not seen
const MinKeyRefreshInterval = time.Minute

// GoogleKeySource fetches Google's published signing certificates and caches
// the parsed keys. A kid that is not cached triggers a refetch, at most once
// per MinKeyRefreshInterval; failed fetches count toward the interval.
type GoogleKeySource struct {
	url    string
	client *http.Client
	cache  *expirable.LRU[string, *rsa.PublicKey]

	mu          sync.Mutex
	lastRefresh time.Time
	minRefresh  time.Duration
	now         func() time.Time
}

// NewGoogleKeySource creates a key source. An empty url uses GoogleCertsURL;
// ttl <= 0 caches keys for an hour.
func NewGoogleKeySource(url string, ttl time.Duration) *GoogleKeySource {
	if url == "" {
		url = GoogleCertsURL
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &GoogleKeySource{
		url:        url,
		client:     &http.Client{Timeout: 10 * time.Second},
		cache:      expirable.NewLRU[string, *rsa.PublicKey](64, nil, ttl),
		minRefresh: MinKeyRefreshInterval,
		now:        time.Now,
	}
}

func (s *GoogleKeySource) PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok := s.cache.Get(kid); ok {
		return key, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// another caller may have refreshed while we waited
	if key, ok := s.cache.Get(kid); ok {
		return key, nil
	}

	now := s.now()
	if !s.lastRefresh.IsZero() && now.Sub(s.lastRefresh) < s.minRefresh {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, kid)
	}
	s.lastRefresh = now

	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	if key, ok := s.cache.Get(kid); ok {
		return key, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKey, kid)
}

func (s *GoogleKeySource) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("build certificate request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch signing certificates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch signing certificates: unexpected status %d", resp.StatusCode)
	}

	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return fmt.Errorf("decode signing certificates: %w", err)
	}

	for kid, pem := range certs {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return fmt.Errorf("parse certificate %s: %w", kid, err)
		}
		s.cache.Add(kid, key)
	}
	return nil
}

// FirebaseVerifier verifies Firebase Authentication ID tokens
type FirebaseVerifier struct {
	projectID string
	issuer    string
	keys      KeySource
}

type firebaseClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// NewFirebaseVerifier creates a verifier for tokens issued to projectID
func NewFirebaseVerifier(projectID string, keys KeySource) (*FirebaseVerifier, error) {
	if projectID == "" {
		return nil, errors.New("firebase project ID is required")
	}
	if keys == nil {
		return nil, errors.New("key source is required")
	}
	return &FirebaseVerifier{
		projectID: projectID,
		issuer:    "https://securetoken.google.com/" + projectID,
		keys:      keys,
	}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	if raw == "" {
		return nil, ErrEmptyToken
	}

	var claims firebaseClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no kid header")
		}
		return v.keys.PublicKey(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.projectID),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, fmt.Errorf("verify firebase token: %w", err)
	}

	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	if len(claims.Subject) > maxUIDLength {
		return nil, fmt.Errorf("token subject longer than %d characters", maxUIDLength)
	}

	return &Identity{UID: claims.Subject, Email: claims.Email, Provider: "firebase"}, nil
}
