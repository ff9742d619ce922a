package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the JWT payload fields.
type Claims struct {
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 session tokens with a process-wide
// secret. It never touches the account store: a token is valid on signature
// and expiry alone.
type Provider struct {
	secret []byte
	expiry time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	return &Provider{secret: []byte(cfg.JWTSecret), expiry: cfg.JWTExpiry}, nil
}

// Sign issues a session token for the account and returns it with its
// absolute expiry.
func (p *Provider) Sign(accountID string) (string, time.Time, error) {
	expiresAt := time.Now().Add(p.expiry)
	claims := Claims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify parses and validates a session token, returning its claims.
func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
