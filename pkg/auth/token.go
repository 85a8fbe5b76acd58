package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingToken is returned when no bearer token is present.
var ErrMissingToken = errors.New("missing bearer token")

// Claims is the subset of the PDV API access token the terminal inspects.
// The upstream signs the token; the terminal never verifies the signature and
// only reads the payload to fail fast on expired sessions.
type Claims struct {
	jwt.RegisteredClaims
}

// Username returns the `sub` claim.
func (c *Claims) Username() string {
	if c == nil {
		return ""
	}
	return c.Subject
}

// Expired reports whether exp lies at or before now. Tokens without exp never expire locally.
func (c *Claims) Expired(now time.Time) bool {
	if c == nil || c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}

// Inspect decodes the token payload without validating signature or claims.
func Inspect(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
// A bare "Bearer" scheme with no credentials counts as a missing token.
func BearerToken(header string) (string, error) {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return "", ErrMissingToken
	}
	if !strings.EqualFold(fields[0], "bearer") || len(fields) > 2 {
		return "", fmt.Errorf("authorization header must be Bearer <token>")
	}
	if len(fields) == 1 {
		return "", ErrMissingToken
	}
	return fields[1], nil
}
