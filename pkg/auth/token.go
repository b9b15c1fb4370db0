package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is the subset of JWT claims the client cares about. The token is
// parsed without signature verification: the server is the only party that
// validates it, the client merely introspects expiry for logging.
type TokenInfo struct {
	Subject   string
	Issuer    string
	ExpiresAt time.Time
}

// Inspect decodes the claims of a bearer token without verifying it.
func Inspect(token string) (*TokenInfo, error) {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	info := &TokenInfo{
		Subject: claims.Subject,
		Issuer:  claims.Issuer,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// Expired reports whether the token carries an exp claim in the past.
// Tokens that do not parse or carry no expiry are treated as not expired:
// attachment is never blocked on introspection.
func Expired(token string, now time.Time) bool {
	info, err := Inspect(token)
	if err != nil || info.ExpiresAt.IsZero() {
		return false
	}
	return info.ExpiresAt.Before(now)
}
