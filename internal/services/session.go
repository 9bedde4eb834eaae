package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AnshRaj112/diary-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	// SessionDuration is 7 days
	SessionDuration = 7 * 24 * time.Hour
	// SessionKeyPrefix is the Redis key prefix for sessions
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for user->session mapping
	UserSessionKeyPrefix = "user_session:"
)

// SessionVerifier resolves opaque session tokens written to Redis by the
// sign-in service. A successful lookup extends the session by SessionDuration.
type SessionVerifier struct {
	rdb redis.UniversalClient
}

// NewSessionVerifier creates a verifier over rdb.
func NewSessionVerifier(rdb redis.UniversalClient) *SessionVerifier {
	return &SessionVerifier{rdb: rdb}
}

// Verify returns the session's user. Unknown tokens give ErrInvalidToken.
func (v *SessionVerifier) Verify(ctx context.Context, token string) (models.Principal, error) {
	if token == "" {
		return models.Principal{}, ErrInvalidToken
	}

	sessionKey := SessionKeyPrefix + token
	userID, err := v.rdb.Get(ctx, sessionKey).Result()
	if errors.Is(err, redis.Nil) || (err == nil && userID == "") {
		return models.Principal{}, ErrInvalidToken
	}
	if err != nil {
		return models.Principal{}, fmt.Errorf("lookup session: %w", err)
	}

	// Sliding expiry; both keys move together.
	pipe := v.rdb.TxPipeline()
	pipe.Expire(ctx, sessionKey, SessionDuration)
	pipe.Expire(ctx, UserSessionKeyPrefix+userID, SessionDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		return models.Principal{}, fmt.Errorf("refresh session: %w", err)
	}

	return models.Principal{UserID: userID}, nil
}

// ChainVerifier tries each verifier in order and returns the first success.
type ChainVerifier []TokenVerifier

func (c ChainVerifier) Verify(ctx context.Context, token string) (models.Principal, error) {
	var errs []error
	for _, v := range c {
		p, err := v.Verify(ctx, token)
		if err == nil {
			return p, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return models.Principal{}, ErrInvalidToken
	}
	return models.Principal{}, errors.Join(errs...)
}
