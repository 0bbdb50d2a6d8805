package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are read from the token without verifying its signature. They are
// only used for display; the server stays the authority on validity.
type Claims struct {
	Subject   string
	IssuedAt  *time.Time
	ExpiresAt *time.Time
}

func ParseClaims(token string) (*Claims, error) {
	if len(token) == 0 {
		return nil, ErrNoToken
	}

	registered := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, registered); err != nil {
		return nil, fmt.Errorf("token is not a readable jwt: %w", err)
	}

	claims := &Claims{Subject: registered.Subject}
	if registered.IssuedAt != nil {
		issued := registered.IssuedAt.Time
		claims.IssuedAt = &issued
	}
	if registered.ExpiresAt != nil {
		expires := registered.ExpiresAt.Time
		claims.ExpiresAt = &expires
	}
	return claims, nil
}

func (c *Claims) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// TimeLeft is zero when the token has no expiry or has already expired.
func (c *Claims) TimeLeft(now time.Time) time.Duration {
	if c.ExpiresAt == nil || c.IsExpired(now) {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}
