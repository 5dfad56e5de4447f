package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TokenInfo is what can be read from a bearer token without verifying it
type TokenInfo struct {
	Subject   string
	Name      string
	IssuedAt  time.Time
	ExpiresAt time.Time // Zero if the token carries no expiry
}

// Expired reports whether the token expiry is before now
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

type tokenClaims struct {
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// InspectToken decodes the claims of a JWT bearer token. The signature is not
// checked; the backend remains the only authority on token validity.
func InspectToken(token string) (*TokenInfo, error) {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	info := &TokenInfo{
		Subject: claims.Subject,
		Name:    claims.Name,
	}
	if info.Name == "" {
		info.Name = claims.Username
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	return info, nil
}
