package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/AnshRaj112/diary-backend/internal/models"
	"github.com/AnshRaj112/diary-backend/internal/services"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	feedPingInterval = 30 * time.Second
	feedReadTimeout  = 90 * time.Second
	feedWriteTimeout = 10 * time.Second
)

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is enforced at the HTTP layer.
		return true
	},
}

// FeedMessage is pushed to feed clients.
type FeedMessage struct {
	Type    string         `json:"type"` // "entries" or "error"
	Entries []models.Entry `json:"entries"`
	Message string         `json:"message,omitempty"`
}

// EntriesFeed streams the user's entry list over WebSocket: once on
// connect and again after every change made through any request.
func (h *Handler) EntriesFeed(w http.ResponseWriter, r *http.Request) {
	principal, ok := services.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "missing session token", http.StatusUnauthorized)
		return
	}

	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// The request context ends with the handler; the feed outlives it.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	authCtx := services.WithPrincipal(ctx, principal)

	// Reader: the feed is push-only, reads only detect disconnects.
	go func() {
		defer cancel()
		conn.SetReadLimit(4 * 1024)
		_ = conn.SetReadDeadline(time.Now().Add(feedReadTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(feedReadTimeout))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(feedPingInterval)
	defer ticker.Stop()

	write := func(msg FeedMessage) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
		return conn.WriteJSON(msg) == nil
	}

	for {
		// Re-acquired whenever the registry retires the repository.
		repo := h.repos.For(principal.UserID)
		updates, unsubscribe := repo.Subscribe()

		if _, err := repo.Load(authCtx); err != nil {
			_, message := statusFor(err)
			h.log.Warn("feed load failed", zap.String("user_id", principal.UserID), zap.Error(err))
			if !write(FeedMessage{Type: "error", Message: message}) {
				unsubscribe()
				return
			}
		}

	stream:
		for {
			select {
			case <-ctx.Done():
				unsubscribe()
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(feedWriteTimeout)); err != nil {
					unsubscribe()
					return
				}
			case list, ok := <-updates:
				if !ok {
					break stream
				}
				if !write(FeedMessage{Type: "entries", Entries: list}) {
					unsubscribe()
					return
				}
			}
		}
		unsubscribe()
	}
}
