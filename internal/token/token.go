// Package token mints and verifies the short-lived bearer tokens that
// protect a served dataset. The token is attached to every emitted file
// definition via requestInit headers and checked by the data server's
// auth middleware, so only the front-end holding the config can read the
// files.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "viewer-backend"

// Mint signs an HS256 token scoped to one config uid.
func Mint(secret, configUID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("token secret must not be empty")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   configUID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Verify parses and validates a token minted by Mint, returning the
// config uid it is scoped to.
func Verify(secret, tokenString string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("token secret must not be empty")
	}
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("unexpected claims type %T", parsed.Claims)
	}
	sub, _ := claims.GetSubject()
	return sub, nil
}
