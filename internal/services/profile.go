package services

import (
	"context"
	"fmt"
	"time"

	"github.com/AnshRaj112/diary-backend/internal/models"
	"go.uber.org/zap"
)

// ProfileStore persists user profiles. EnsureProfile never overwrites an
// existing profile and reports whether one was created.
type ProfileStore interface {
	EnsureProfile(ctx context.Context, p models.Profile) (bool, error)
	GetProfile(ctx context.Context, userID string) (models.Profile, bool, error)
}

// ProfileService records users the first time they are seen.
type ProfileService struct {
	profiles ProfileStore
	log      *zap.Logger
	now      func() time.Time
}

// NewProfileService creates a ProfileService.
func NewProfileService(profiles ProfileStore, log *zap.Logger) *ProfileService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileService{
		profiles: profiles,
		log:      log.With(zap.String("component", "profiles")),
		now:      time.Now,
	}
}

// Ensure stores a profile for p unless one exists, then returns the stored one.
func (s *ProfileService) Ensure(ctx context.Context, p models.Principal) (models.Profile, error) {
	if p.UserID == "" {
		return models.Profile{}, ErrNotAuthenticated
	}

	created, err := s.profiles.EnsureProfile(ctx, models.Profile{
		UserID:    p.UserID,
		Name:      DisplayName(p),
		Email:     p.Email,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return models.Profile{}, fmt.Errorf("ensure profile: %w", err)
	}
	if created {
		s.log.Info("profile created", zap.String("user_id", p.UserID))
	}

	profile, found, err := s.profiles.GetProfile(ctx, p.UserID)
	if err != nil {
		return models.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	if !found {
		return models.Profile{}, fmt.Errorf("get profile: %s vanished after insert", p.UserID)
	}
	return profile, nil
}
