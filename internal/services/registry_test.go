package services

import (
	"context"
	"testing"
	"time"

	"github.com/AnshRaj112/diary-backend/internal/models"
	"github.com/AnshRaj112/diary-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestRegistry_OneRepositoryPerUser(t *testing.T) {
	reg := NewRegistry(store.NewMemory(), zaptest.NewLogger(t), RepositoryOptions{}, time.Minute)

	a := reg.For("alice")
	assert.Same(t, a, reg.For("alice"))
	assert.NotSame(t, a, reg.For("bob"))
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_RepositoryBoundToItsUser(t *testing.T) {
	st := store.NewMemory()
	reg := NewRegistry(st, zaptest.NewLogger(t), RepositoryOptions{}, time.Minute)

	alice := WithPrincipal(context.Background(), models.Principal{UserID: "alice"})
	bob := WithPrincipal(context.Background(), models.Principal{UserID: "bob"})

	_, err := reg.For("alice").Add(alice, "A", "😀", "x")
	require.NoError(t, err)

	// bob's context cannot act through alice's repository
	_, err = reg.For("alice").Add(bob, "B", "😢", "y")
	require.ErrorIs(t, err, ErrNotAuthenticated)

	entries, err := reg.For("bob").Load(bob)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRegistry_AnonymousRepository(t *testing.T) {
	st := store.NewMemory()
	reg := NewRegistry(st, zaptest.NewLogger(t), RepositoryOptions{}, time.Minute)

	repo := reg.For("")
	entries, err := repo.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Zero(t, st.Calls(store.OpList))
	assert.Zero(t, reg.Len())
}

func TestRegistry_DropClosesSubscribers(t *testing.T) {
	reg := NewRegistry(store.NewMemory(), zaptest.NewLogger(t), RepositoryOptions{}, time.Minute)

	repo := reg.For("alice")
	updates, _ := repo.Subscribe()

	reg.Drop("alice")

	_, ok := <-updates
	assert.False(t, ok)
	assert.Zero(t, reg.Len())
	assert.NotSame(t, repo, reg.For("alice"))
}

func TestRegistry_ExpiredRepositoryReplaced(t *testing.T) {
	// the janitor keeps running after the test, so it must not log to t
	core, logs := observer.New(zap.DebugLevel)
	reg := NewRegistry(store.NewMemory(), zap.New(core), RepositoryOptions{}, 30*time.Millisecond)

	repo := reg.For("alice")
	updates, _ := repo.Subscribe()

	time.Sleep(60 * time.Millisecond)

	fresh := reg.For("alice")
	t.Cleanup(func() { reg.Drop("alice") })
	assert.NotSame(t, repo, fresh)
	select {
	case _, ok := <-updates:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription of expired repository not closed")
	}
	assert.NotZero(t, logs.FilterMessage("repository evicted").Len())
}

func TestRegistry_ClosedRepositoryReplaced(t *testing.T) {
	reg := NewRegistry(store.NewMemory(), zaptest.NewLogger(t), RepositoryOptions{}, time.Minute)

	repo := reg.For("alice")
	// as if evicted between lookup and re-insert
	repo.Close()
	require.True(t, repo.Closed())

	fresh := reg.For("alice")
	require.NotSame(t, repo, fresh)
	assert.False(t, fresh.Closed())
	assert.Same(t, fresh, reg.For("alice"))

	updates, unsubscribe := fresh.Subscribe()
	defer unsubscribe()
	_, err := fresh.Load(WithPrincipal(context.Background(), models.Principal{UserID: "alice"}))
	require.NoError(t, err)
	assert.Empty(t, receive(t, updates))
}

func TestRegistry_Refresh(t *testing.T) {
	st := store.NewMemory()
	reg := NewRegistry(st, zaptest.NewLogger(t), RepositoryOptions{}, time.Minute)

	repo := reg.For("alice")
	updates, unsubscribe := repo.Subscribe()
	defer unsubscribe()

	// written by another instance
	st.Put("alice", models.Document{ID: "remote", Fields: ToDocument("A", "😀", "x", t1)})
	reg.Refresh(context.Background(), "alice")

	assert.Equal(t, []string{"remote"}, ids(receive(t, updates)))

	reg.Refresh(context.Background(), "nobody")
	assert.Equal(t, 1, reg.Len(), "refresh never creates repositories")
}
