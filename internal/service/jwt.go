package service

import (
	"errors"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")

	jwtMu     sync.RWMutex
	jwtSecret []byte
)

// Claims issued by the accounts service.
type Claims struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// InitJWT sets the shared HS256 secret the accounts service signs with.
func InitJWT(secret string) {
	jwtMu.Lock()
	defer jwtMu.Unlock()
	jwtSecret = []byte(secret)
}

// ParseJWT verifies a token and returns the user it was issued for.
// Issuing tokens is the accounts service's job; the game server only checks them.
func ParseJWT(token string) (int64, error) {
	claims, err := ParseClaims(token)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

func ParseClaims(token string) (*Claims, error) {
	jwtMu.RLock()
	secret := jwtSecret
	jwtMu.RUnlock()
	if len(secret) == 0 {
		return nil, fmt.Errorf("jwt secret not configured: %w", ErrInvalidToken)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
