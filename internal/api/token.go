package api

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenDetails is what can be read from a bearer token without the signing key.
type TokenDetails struct {
	JWT       bool
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry in the past. The
// server's 401 stays the authority; this is informational only.
func (d TokenDetails) Expired(now time.Time) bool {
	return !d.ExpiresAt.IsZero() && now.After(d.ExpiresAt)
}

// InspectToken decodes JWT claims without verifying the signature. Opaque
// tokens are reported with JWT=false.
func InspectToken(token string) TokenDetails {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenDetails{}
	}

	d := TokenDetails{JWT: true}
	if sub, err := claims.GetSubject(); err == nil {
		d.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		d.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		d.IssuedAt = iat.Time
	}
	return d
}
