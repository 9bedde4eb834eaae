package middleware

import (
	"errors"
	"net/http"

	"github.com/AnshRaj112/diary-backend/internal/services"
	"go.uber.org/zap"
)

// Authenticate resolves the bearer token (or the token query parameter used
// by browser WebSocket clients) and stores the principal in the request
// context. Requests without a token pass through anonymously; invalid
// tokens get 401.
func Authenticate(verifier services.TokenVerifier, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := services.ExtractBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token == "" || verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := verifier.Verify(r.Context(), token)
			if err != nil {
				if !errors.Is(err, services.ErrInvalidToken) {
					log.Warn("token verification failed", zap.Error(err))
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"success":false,"message":"Invalid or expired token"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(services.WithPrincipal(r.Context(), principal)))
		})
	}
}
