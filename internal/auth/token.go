// Package auth issues and verifies stateless HS256 bearer tokens and hashes
// the admin password.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/developia-II/feedback-analyzer-backend/internal/apperr"
	"github.com/developia-II/feedback-analyzer-backend/internal/clock"
)

// Claims is the token payload: subject, role and the registered time claims.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is what a verified token says about its bearer.
type Identity struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

type TokenService struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
	parser *jwt.Parser
}

func NewTokenService(secret []byte, ttl time.Duration, c clock.Clock) *TokenService {
	if c == nil {
		c = clock.Real{}
	}
	return &TokenService{
		secret: secret,
		ttl:    ttl,
		clock:  c,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(c.Now),
		),
	}
}

// TTL is the lifetime given to tokens by IssueDefault.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for subject with role that expires ttl from now.
func (s *TokenService) Issue(subject, role string, ttl time.Duration) (string, error) {
	now := s.clock.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) IssueDefault(subject, role string) (string, error) {
	return s.Issue(subject, role, s.ttl)
}

// Verify checks the signature and expiry of token. An expired token yields
// apperr.ErrTokenExpired; every other defect yields apperr.ErrTokenInvalid.
func (s *TokenService) Verify(token string) (*Identity, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Wrap(apperr.KindTokenExpired, err, "Token has expired")
		}
		return nil, apperr.Wrap(apperr.KindTokenInvalid, err, "Invalid token")
	}
	return identityFrom(claims)
}

// PeekExpiry decodes token without checking its signature or expiry. The
// result must only be used to decide whether a token is worth refreshing,
// never to grant access.
func (s *TokenService) PeekExpiry(token string) (*Identity, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, apperr.Wrap(apperr.KindTokenInvalid, err, "Invalid token")
	}
	return identityFrom(claims)
}

// ShouldRefresh reports whether a token expiring at expiresAt is still valid
// but has less than half of the configured lifetime left.
func (s *TokenService) ShouldRefresh(expiresAt time.Time) bool {
	remaining := expiresAt.Sub(s.clock.Now())
	return remaining > 0 && remaining < s.ttl/2
}

// Authorize verifies token and requires its role to be requiredRole.
func (s *TokenService) Authorize(token, requiredRole string) (*Identity, error) {
	id, err := s.Verify(token)
	if err != nil {
		return nil, err
	}
	if id.Role != requiredRole {
		return nil, apperr.New(apperr.KindForbiddenRole, "Admin access required")
	}
	return id, nil
}

func identityFrom(claims *Claims) (*Identity, error) {
	if claims.Subject == "" || claims.Role == "" || claims.ExpiresAt == nil {
		return nil, apperr.New(apperr.KindTokenInvalid, "Invalid token")
	}
	return &Identity{
		Subject:   claims.Subject,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
