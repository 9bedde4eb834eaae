package services

import (
	"context"
	"testing"

	"github.com/AnshRaj112/diary-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestPrincipalFromContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	_, ok = PrincipalFromContext(WithPrincipal(context.Background(), models.Principal{}))
	assert.False(t, ok, "empty user id is not signed in")

	p, ok := PrincipalFromContext(WithPrincipal(context.Background(), models.Principal{UserID: "u1", Name: "Ann"}))
	assert.True(t, ok)
	assert.Equal(t, "Ann", p.Name)
}

func TestContextIdentity(t *testing.T) {
	id, ok := ContextIdentity{}.CurrentUserID(WithPrincipal(context.Background(), models.Principal{UserID: "u1"}))
	assert.True(t, ok)
	assert.Equal(t, "u1", id)

	_, ok = ContextIdentity{}.CurrentUserID(context.Background())
	assert.False(t, ok)
}

func TestBoundIdentity(t *testing.T) {
	bound := boundIdentity{userID: "u1"}

	_, ok := bound.CurrentUserID(WithPrincipal(context.Background(), models.Principal{UserID: "u1"}))
	assert.True(t, ok)

	_, ok = bound.CurrentUserID(WithPrincipal(context.Background(), models.Principal{UserID: "u2"}))
	assert.False(t, ok)

	_, ok = boundIdentity{}.CurrentUserID(WithPrincipal(context.Background(), models.Principal{UserID: "u1"}))
	assert.False(t, ok)
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer  abc ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractBearerToken(tt.header), "header %q", tt.header)
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ann", DisplayName(models.Principal{Name: " Ann ", Email: "a@b.c"}))
	assert.Equal(t, "ann.lee", DisplayName(models.Principal{Email: "ann.lee@example.com"}))
	assert.Equal(t, "User", DisplayName(models.Principal{}))
	assert.Equal(t, "User", DisplayName(models.Principal{Email: "@example.com"}))
}
