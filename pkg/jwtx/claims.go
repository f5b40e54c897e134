// Package jwtx holds the JWT plumbing for the two token classes the
// session layer mints: short-lived access tokens carrying profile claims
// and long-lived refresh tokens carrying only the subject. Both classes
// are HS256-signed, each with its own secret.
package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultAccessTTL is the default lifetime for access tokens.
	DefaultAccessTTL = time.Hour

	// DefaultRefreshTTL is the default lifetime for refresh tokens.
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

// Claims are the claims carried by both token classes. Refresh tokens
// leave Name and Username empty.
type Claims struct {
	jwt.RegisteredClaims

	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
}

// NewAccessClaims builds the access-token claim set:
// {sub, name, username, iss, iat, exp}.
func NewAccessClaims(subject, name, username, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name:     name,
		Username: username,
	}
}

// NewRefreshClaims builds the refresh-token claim set: {sub, iss, iat, exp}.
func NewRefreshClaims(subject, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}
