package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	adminIDKey contextKey = "adminID"
	claimsKey  contextKey = "claims"
)

// Revoker reports whether a token id was revoked by a logout.
type Revoker interface {
	IsRevoked(jti string) bool
}

// UnauthorizedFunc writes the 401 response; the mock backend plugs in its envelope.
type UnauthorizedFunc func(w http.ResponseWriter, message string)

type Middleware struct {
	secretKey    []byte
	revoker      Revoker
	unauthorized UnauthorizedFunc
}

func NewMiddleware(secret string, revoker Revoker, unauthorized UnauthorizedFunc) *Middleware {
	if unauthorized == nil {
		unauthorized = func(w http.ResponseWriter, message string) {
			http.Error(w, message, http.StatusUnauthorized)
		}
	}
	return &Middleware{
		secretKey:    []byte(secret),
		revoker:      revoker,
		unauthorized: unauthorized,
	}
}

func (m *Middleware) ValidateToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.unauthorized(w, "Missing Authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.unauthorized(w, "Invalid Authorization header format")
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		})

		if err != nil || !token.Valid {
			slog.Warn("Invalid token attempt", "error", err)
			m.unauthorized(w, "Invalid or expired token")
			return
		}

		if m.revoker != nil && m.revoker.IsRevoked(claims.ID) {
			slog.Warn("Revoked token used", "admin_id", claims.Subject)
			m.unauthorized(w, "Token has been revoked")
			return
		}

		ctx := context.WithValue(r.Context(), adminIDKey, claims.Subject)
		ctx = context.WithValue(ctx, claimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// AdminID returns the authenticated admin set by ValidateToken.
func AdminID(ctx context.Context) string {
	id, _ := ctx.Value(adminIDKey).(string)
	return id
}

func ClaimsFrom(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey).(*Claims)
	return c
}
