package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AnshRaj112/diary-backend/internal/models"
	"github.com/AnshRaj112/diary-backend/internal/services"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"
)

type verifierFunc func(ctx context.Context, token string) (models.Principal, error)

func (f verifierFunc) Verify(ctx context.Context, token string) (models.Principal, error) {
	return f(ctx, token)
}

// whoami echoes the authenticated user id.
var whoami = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	p, ok := services.PrincipalFromContext(r.Context())
	if !ok {
		w.Write([]byte("anonymous"))
		return
	}
	w.Write([]byte(p.UserID))
})

func TestAuthenticate(t *testing.T) {
	verifier := verifierFunc(func(_ context.Context, token string) (models.Principal, error) {
		switch token {
		case "good":
			return models.Principal{UserID: "u1"}, nil
		case "broken":
			return models.Principal{}, errors.New("redis down")
		}
		return models.Principal{}, services.ErrInvalidToken
	})
	h := Authenticate(verifier, zaptest.NewLogger(t))(whoami)

	tests := []struct {
		name   string
		header string
		query  string
		status int
		body   string
	}{
		{"no token", "", "", http.StatusOK, "anonymous"},
		{"bearer", "Bearer good", "", http.StatusOK, "u1"},
		{"query", "", "?token=good", http.StatusOK, "u1"},
		{"invalid", "Bearer bad", "", http.StatusUnauthorized, ""},
		{"verifier error", "Bearer broken", "", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestAuthenticate_NoVerifier(t *testing.T) {
	h := Authenticate(nil, zaptest.NewLogger(t))(whoami)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(whoami).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get(headerXContentTypeOptions))
	assert.Equal(t, "DENY", rec.Header().Get(headerXFrameOptions))
	assert.NotEmpty(t, rec.Header().Get(headerStrictTransportSecurity))
}

func TestHostCheck(t *testing.T) {
	h := HostCheck("diary.example.com")(whoami)

	req := httptest.NewRequest(http.MethodGet, "http://diary.example.com:443/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "http://evil.example.com/", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	HostCheck("")(whoami).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIPLimiter(t *testing.T) {
	l := NewIPLimiter(rate.Limit(0.001), 2)

	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"), "buckets are per IP")

	h := NewIPLimiter(rate.Limit(0.001), 1).Middleware(whoami)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "3.3.3.3:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://diary.example.com"})(whoami)

	req := httptest.NewRequest(http.MethodOptions, "/api/entries", nil)
	req.Header.Set("Origin", "https://diary.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://diary.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/entries", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestLogger(zap.New(core)))
	r.Get("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/ok", whoami)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(http.StatusNotFound), entries[0].ContextMap()["status"])
	assert.Equal(t, "/missing", entries[0].ContextMap()["path"])
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
	assert.Equal(t, int64(http.StatusOK), entries[1].ContextMap()["status"])
}

func TestWriteLimiter(t *testing.T) {
	h := NewWriteLimiter().Middleware(whoami)

	send := func(userID, addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/entries", nil)
		req.RemoteAddr = addr
		if userID != "" {
			req = req.WithContext(services.WithPrincipal(req.Context(), models.Principal{UserID: userID}))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < writeAnonBurst; i++ {
		require.Equal(t, http.StatusOK, send("", "4.4.4.4:1"))
	}
	assert.Equal(t, http.StatusTooManyRequests, send("", "4.4.4.4:1"))

	// the same address is still fine for a signed-in user
	assert.Equal(t, http.StatusOK, send("u1", "4.4.4.4:1"))

	for i := 1; i < writeAuthBurst; i++ {
		require.Equal(t, http.StatusOK, send("u1", "5.5.5.5:1"))
	}
	assert.Equal(t, http.StatusTooManyRequests, send("u1", "6.6.6.6:1"), "user bucket follows the account")
}
