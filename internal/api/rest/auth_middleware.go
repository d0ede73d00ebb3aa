package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cardguard/cardguard-backend/internal/infrastructure/config"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Claims represents JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"user_id"`
}

// AuthMiddleware validates bearer tokens and injects the caller's
// identity into the request context. Tokens are HMAC-signed; the
// identity provider issuing them lives outside this service.
type AuthMiddleware struct {
	secret []byte
	expiry time.Duration
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(cfg *config.SecurityConfig) *AuthMiddleware {
	return &AuthMiddleware{
		secret: []byte(cfg.JWTSecret),
		expiry: cfg.TokenExpiry,
	}
}

// Middleware returns the authentication middleware function
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeUnauthorized(w, "Authorization required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeUnauthorized(w, "Invalid authorization format")
			return
		}

		claims, err := a.validateToken(parts[1])
		if err != nil {
			writeUnauthorized(w, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *AuthMiddleware) validateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == uuid.Nil {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

// IssueToken creates a signed token for the given user. Exposed for
// tests and local tooling; production tokens come from the identity
// provider.
func (a *AuthMiddleware) IssueToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.expiry)),
			Issuer:    "cardguard",
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// UserIDFromContext extracts the authenticated caller, if any.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}
