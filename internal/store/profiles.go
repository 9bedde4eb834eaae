package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/AnshRaj112/diary-backend/internal/models"
)

// PostgresProfiles keeps user profiles in the diary_profiles table.
type PostgresProfiles struct {
	db *sql.DB
}

// NewPostgresProfiles creates a profile store over db.
func NewPostgresProfiles(db *sql.DB) *PostgresProfiles {
	return &PostgresProfiles{db: db}
}

// InitTables creates the profile table if it doesn't exist
func (s *PostgresProfiles) InitTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS diary_profiles (
			user_id VARCHAR(255) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_diary_profiles_created_at ON diary_profiles(created_at)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresProfiles) EnsureProfile(ctx context.Context, p models.Profile) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO diary_profiles (user_id, name, email, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING
	`, p.UserID, p.Name, p.Email, p.CreatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PostgresProfiles) GetProfile(ctx context.Context, userID string) (models.Profile, bool, error) {
	var p models.Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, name, email, created_at FROM diary_profiles WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.Name, &p.Email, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, false, nil
	}
	if err != nil {
		return models.Profile{}, false, err
	}
	return p, true, nil
}

// MemoryProfiles is the in-process profile store.
type MemoryProfiles struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
}

// NewMemoryProfiles creates an empty profile store.
func NewMemoryProfiles() *MemoryProfiles {
	return &MemoryProfiles{profiles: make(map[string]models.Profile)}
}

func (s *MemoryProfiles) EnsureProfile(_ context.Context, p models.Profile) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.UserID]; ok {
		return false, nil
	}
	s.profiles[p.UserID] = p
	return true, nil
}

func (s *MemoryProfiles) GetProfile(_ context.Context, userID string) (models.Profile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	return p, ok, nil
}
