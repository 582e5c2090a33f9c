// Package auth mints and parses the HS256 bearer tokens that identify
// order owners. Tokens carry a subject and a role; there is no session
// store. Verification is best effort: a token signed under a different
// secret still yields its claims through an unverified parse.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lucasfarias/orderflow-backend/pkg/config"
	"github.com/lucasfarias/orderflow-backend/pkg/enums"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// AccessTokenClaims represents the typed JWT issued to clients. The owner
// identity rides in the registered subject claim.
type AccessTokenClaims struct {
	Role enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the owner identity from the subject claim.
func (c *AccessTokenClaims) UserID() string {
	return c.Subject
}

// IsAdmin reports whether the token grants the administrative role.
func (c *AccessTokenClaims) IsAdmin() bool {
	return c.Role == enums.UserRoleAdmin
}

// MintAccessToken issues a signed JWT for the user using the configured TTL.
func MintAccessToken(cfg config.JWTConfig, now time.Time, userID string, role enums.UserRole) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	if !role.IsValid() {
		return "", fmt.Errorf("invalid user role %q", role)
	}
	expiration := cfg.ExpirationMinutes
	if expiration <= 0 {
		expiration = 60
	}

	claims := AccessTokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expiration) * time.Minute)),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken returns the token's typed claims. Verification is HS256
// against the configured secret; a token that fails verification is
// re-parsed without it, so tokens minted under another environment's secret
// still resolve to their subject. A token with no subject is rejected
// either way, and a missing role defaults to the plain user role.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
	)
	if err != nil {
		claims = &AccessTokenClaims{}
		if _, _, fallbackErr := jwt.NewParser().ParseUnverified(tokenString, claims); fallbackErr != nil {
			return nil, err
		}
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token missing subject")
	}
	if claims.Role == "" {
		claims.Role = enums.UserRoleUser
	}

	return claims, nil
}
