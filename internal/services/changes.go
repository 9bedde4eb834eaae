package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ChangeChannelPrefix is the Redis channel prefix for entry change events
const ChangeChannelPrefix = "entries:changed:"

// ChangeEvent tells other instances that a user's entries changed.
type ChangeEvent struct {
	UserID    string    `json:"user_id"`
	Origin    string    `json:"origin"`
	Timestamp time.Time `json:"timestamp"`
}

// ChangeBus relays entry changes between server instances over Redis
// pub/sub, so live feeds see writes made through any instance.
type ChangeBus struct {
	rdb    redis.UniversalClient
	log    *zap.Logger
	origin string
}

// NewChangeBus creates a bus with a random instance id.
func NewChangeBus(rdb redis.UniversalClient, log *zap.Logger) *ChangeBus {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChangeBus{
		rdb:    rdb,
		log:    log.With(zap.String("component", "changes")),
		origin: uuid.NewString(),
	}
}

// Publish announces a change of userID's entries.
func (b *ChangeBus) Publish(ctx context.Context, userID string) error {
	data, err := json.Marshal(ChangeEvent{
		UserID:    userID,
		Origin:    b.origin,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, ChangeChannelPrefix+userID, data).Err()
}

// Run listens for changes published by other instances and calls onChange
// for each until ctx ends. The subscription is re-established with backoff.
func (b *ChangeBus) Run(ctx context.Context, onChange func(userID string)) {
	backoff := time.Second

	for ctx.Err() == nil {
		err := b.listen(ctx, onChange, func() { backoff = time.Second })
		if ctx.Err() != nil {
			return
		}
		b.log.Warn("change subscriber stopped", zap.Error(err), zap.Duration("retry_in", backoff))

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
	}
}

func (b *ChangeBus) listen(ctx context.Context, onChange func(string), received func()) error {
	pubsub := b.rdb.PSubscribe(ctx, ChangeChannelPrefix+"*")
	defer pubsub.Close()

	b.log.Info("change subscriber started", zap.String("pattern", ChangeChannelPrefix+"*"))
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		received()

		event, ok := b.decode(msg)
		if !ok || event.Origin == b.origin {
			continue
		}
		onChange(event.UserID)
	}
}

func (b *ChangeBus) decode(msg *redis.Message) (ChangeEvent, bool) {
	var event ChangeEvent
	if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
		b.log.Warn("failed to decode change event", zap.String("channel", msg.Channel), zap.Error(err))
		return ChangeEvent{}, false
	}
	if event.UserID == "" {
		event.UserID = strings.TrimPrefix(msg.Channel, ChangeChannelPrefix)
	}
	return event, event.UserID != ""
}
