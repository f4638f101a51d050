package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/ewoodward/routinely/internal/repository"
)

// APITokenAuth guards the task API with bearer tokens. Browser session auth
// lives with the frontend's identity provider, not here.
func APITokenAuth(tokenRepo repository.APITokenRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			tokenHash := repository.HashToken(tokenString)

			token, err := tokenRepo.FindByTokenHash(r.Context(), tokenHash)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if token.ExpiresAt != nil && token.ExpiresAt.Before(time.Now()) {
				http.Error(w, "Token expired", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
