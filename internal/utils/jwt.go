package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims mirrors the claims the workshop backend puts in its access tokens.
type JWTClaims struct {
	UserID   int64    `json:"userId,omitempty"`
	Username string   `json:"username,omitempty"`
	Role     string   `json:"role,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

var ErrTokenExpired = errors.New("token expired")

// ParseToken decodes a backend-issued token. When secret is empty the
// signature is not checked (the backend remains the authority) but the
// expiry still is.
func ParseToken(tokenString, secret string, now time.Time) (*JWTClaims, error) {
	claims := &JWTClaims{}

	if secret == "" {
		parser := jwt.NewParser()
		if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
			return nil, fmt.Errorf("failed to decode token: %w", err)
		}
		if claims.ExpiresAt != nil && !claims.ExpiresAt.After(now) {
			return nil, ErrTokenExpired
		}
		return claims, nil
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
