package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type contextKey string

const usernameKey contextKey = "username"

// TokenValidator checks an access token and returns the username it was
// issued to.
type TokenValidator interface {
	ValidateToken(tokenString string) (string, error)
}

type AuthMiddleware struct {
	validator TokenValidator
	logger    *zap.Logger
}

func NewAuthMiddleware(validator TokenValidator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		logger:    logger,
	}
}

// Optional attaches the caller identity when a valid bearer token is
// present and lets the request through anonymously otherwise.
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, ok := m.usernameFromRequest(r)
		if ok {
			r = r.WithContext(context.WithValue(r.Context(), usernameKey, username))
		}
		next.ServeHTTP(w, r)
	})
}

// Require rejects requests without a valid bearer token.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, ok := m.usernameFromRequest(r)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		r = r.WithContext(context.WithValue(r.Context(), usernameKey, username))
		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) usernameFromRequest(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return "", false
	}

	username, err := m.validator.ValidateToken(tokenString)
	if err != nil {
		m.logger.Debug("Rejected access token", zap.Error(err))
		return "", false
	}

	return username, true
}

func GetUsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok
}
