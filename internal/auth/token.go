package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{
		secretKey: []byte(secret),
		ttl:       ttl,
		now:       time.Now,
	}
}

// Issue signs an HS256 token for adminID and returns it with its claims.
func (i *Issuer) Issue(adminID, role string) (string, *Claims, error) {
	now := i.now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   adminID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secretKey)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Inspect decodes claims without checking the signature. It is for showing a
// locally stored token to its owner, never for authorization.
func Inspect(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

var ErrNoExpiry = errors.New("token has no expiry")

// Expired reports whether the claims' expiry is before now.
func (c *Claims) Expired(now time.Time) (bool, error) {
	if c.ExpiresAt == nil {
		return false, ErrNoExpiry
	}
	return c.ExpiresAt.Before(now), nil
}
