package services

import (
	"context"
	"strings"

	"github.com/AnshRaj112/diary-backend/internal/models"
)

type ctxKey string

const principalKey ctxKey = "principal"

// Identity answers "who is signed in" for the duration of one call.
type Identity interface {
	CurrentUserID(ctx context.Context) (string, bool)
}

// TokenVerifier resolves a bearer token into a principal.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (models.Principal, error)
}

// WithPrincipal stores the authenticated principal in the context.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal set by WithPrincipal.
// Missing or empty user ids report false.
func PrincipalFromContext(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(models.Principal)
	if !ok || p.UserID == "" {
		return models.Principal{}, false
	}
	return p, true
}

// ContextIdentity reads the user from the request context.
type ContextIdentity struct{}

func (ContextIdentity) CurrentUserID(ctx context.Context) (string, bool) {
	p, ok := PrincipalFromContext(ctx)
	return p.UserID, ok
}

// boundIdentity pins a repository to one user. The user only counts as
// signed in while the context carries the same principal.
type boundIdentity struct {
	userID string
}

func (b boundIdentity) CurrentUserID(ctx context.Context) (string, bool) {
	if b.userID == "" {
		return "", false
	}
	id, ok := ContextIdentity{}.CurrentUserID(ctx)
	if !ok || id != b.userID {
		return "", false
	}
	return id, true
}

// ExtractBearerToken returns the token of an "Authorization: Bearer" header.
func ExtractBearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// DisplayName picks the name shown for a user: the provider name, then the
// local part of the email, then "User".
func DisplayName(p models.Principal) string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	if local, _, _ := strings.Cut(strings.TrimSpace(p.Email), "@"); local != "" {
		return local
	}
	return "User"
}
