// internal/auth/middleware.go
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"

	"quiz-engine/pkg/httputil"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserIDFromContext returns the id stored by JWTMiddleware.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	userID, ok := ctx.Value(userIDKey).(uint)
	return userID, ok
}

// WithUserID stores an authenticated user id on the context.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// JWTMiddleware accepts "Authorization: Bearer <token>". Browsers cannot set
// headers on a websocket upgrade, so ?token= is accepted as well.
func JWTMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				httputil.WriteMessage(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			userID, err := ParseToken(raw, jwtSecret)
			if err != nil {
				httputil.WriteMessage(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		token := r.URL.Query().Get("token")
		return token, token != ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// ParseToken validates an HS256 token and returns its user_id claim.
func ParseToken(raw, jwtSecret string) (uint, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(*jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}

	userID, ok := (*claims)["user_id"].(float64)
	if !ok || userID <= 0 {
		return 0, ErrInvalidToken
	}
	return uint(userID), nil
}
