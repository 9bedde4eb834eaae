package services

import (
	"context"
	"sync"
	"time"

	"github.com/AnshRaj112/diary-backend/internal/models"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// DefaultRepositoryIdleTTL is how long an unused repository is kept
const DefaultRepositoryIdleTTL = 30 * time.Minute

// Registry hands out one Repository per signed-in user. Repositories that
// are not requested for the idle TTL are dropped and their subscribers closed.
//
// A Registry is meant to live as long as the process: its expiry janitor
// runs in the background until the Registry is garbage collected.
type Registry struct {
	store EntryStore
	log   *zap.Logger
	opts  RepositoryOptions
	ttl   time.Duration

	mu    sync.Mutex
	repos *cache.Cache
}

// NewRegistry creates a registry. A non-positive ttl uses DefaultRepositoryIdleTTL.
func NewRegistry(store EntryStore, log *zap.Logger, opts RepositoryOptions, ttl time.Duration) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultRepositoryIdleTTL
	}

	c := cache.New(ttl, ttl/2)
	c.OnEvicted(func(userID string, v interface{}) {
		if repo, ok := v.(*Repository); ok {
			repo.Close()
		}
		log.Debug("repository evicted", zap.String("user_id", userID))
	})

	return &Registry{
		store: store,
		log:   log,
		opts:  opts,
		ttl:   ttl,
		repos: c,
	}
}

// For returns the repository of userID, creating it on first use. Each call
// restarts the idle timer. An empty userID yields a throwaway repository
// with no signed-in user.
func (g *Registry) For(userID string) *Repository {
	if userID == "" {
		return NewRepository(g.store, boundIdentity{}, g.log, g.opts)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if v, ok := g.repos.Get(userID); ok {
		repo := v.(*Repository)
		g.repos.Set(userID, repo, cache.DefaultExpiration)
		// the janitor may have evicted and closed it between Get and Set
		if !repo.Closed() {
			return repo
		}
	}

	// An expired repository may still sit in the cache until the janitor
	// runs; delete it so its subscribers get closed.
	g.repos.Delete(userID)

	repo := NewRepository(g.store, boundIdentity{userID: userID}, g.log, g.opts)
	g.repos.Set(userID, repo, cache.DefaultExpiration)
	return repo
}

// Len reports how many repositories are live.
func (g *Registry) Len() int {
	return g.repos.ItemCount()
}

// Drop removes the repository of userID and closes its subscribers.
func (g *Registry) Drop(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.repos.Delete(userID)
}

// Refresh reloads the live repository of userID, if any, so its subscribers
// see changes written elsewhere. It does not extend the idle timer.
func (g *Registry) Refresh(ctx context.Context, userID string) {
	v, ok := g.repos.Get(userID)
	if !ok {
		return
	}
	repo := v.(*Repository)
	if _, err := repo.Load(WithPrincipal(ctx, models.Principal{UserID: userID})); err != nil {
		g.log.Warn("refresh after remote change failed", zap.String("user_id", userID), zap.Error(err))
	}
}
