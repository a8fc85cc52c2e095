// Package auth checks API credentials: the shared API key and bearer tokens
// signed with the JWT secret.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of tokens issued without an explicit TTL.
const DefaultTokenTTL = 30 * 24 * time.Hour

// APIKeySubject identifies requests authenticated with the shared API key.
const APIKeySubject = "api-key"

// ErrMissingCredentials is returned when a request carries neither an API key nor a token.
var ErrMissingCredentials = errors.New("missing credentials")

// ErrInvalidCredentials is returned for a wrong API key or an invalid token.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrTokensDisabled is returned by IssueToken when no JWT secret is configured.
var ErrTokensDisabled = errors.New("bearer tokens are disabled: JWT_SECRET is not set")

// Service validates credentials and issues bearer tokens.
type Service struct {
	apiKey    []byte
	jwtSecret []byte
	now       func() time.Time
}

// NewService creates a new auth Service. An empty jwtSecret disables bearer tokens.
func NewService(apiKey, jwtSecret string) *Service {
	return &Service{apiKey: []byte(apiKey), jwtSecret: []byte(jwtSecret), now: time.Now}
}

// Authenticate checks the X-API-Key value first, then the Authorization
// header, and returns the authenticated subject.
func (s *Service) Authenticate(apiKey, authorization string) (string, error) {
	if apiKey != "" {
		if subtle.ConstantTimeCompare([]byte(apiKey), s.apiKey) != 1 {
			return "", ErrInvalidCredentials
		}
		return APIKeySubject, nil
	}
	if authorization == "" {
		return "", ErrMissingCredentials
	}

	scheme, token, ok := strings.Cut(authorization, " ")
	if !ok || scheme != "Bearer" || token == "" {
		return "", ErrInvalidCredentials
	}
	return s.ParseToken(token)
}

// IssueToken creates a signed JWT for subject.
func (s *Service) IssueToken(subject string, ttl time.Duration) (string, error) {
	if len(s.jwtSecret) == 0 {
		return "", ErrTokensDisabled
	}
	if subject == "" {
		return "", errors.New("token subject is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies an HS256 token and returns its subject.
func (s *Service) ParseToken(raw string) (string, error) {
	if len(s.jwtSecret) == 0 {
		return "", ErrInvalidCredentials
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", ErrInvalidCredentials
	}
	if claims.Subject == "" {
		return "", ErrInvalidCredentials
	}
	return claims.Subject, nil
}
