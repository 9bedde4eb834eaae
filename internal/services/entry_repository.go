package services

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AnshRaj112/diary-backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultStoreTimeout bounds every store call made by a repository
	DefaultStoreTimeout = 5 * time.Second

	deleteConcurrency = 4
)

// EntryStore is the per-user document collection backing a repository.
// ListEntries returns documents newest first. DeleteEntry of an unknown id
// is not an error.
type EntryStore interface {
	ListEntries(ctx context.Context, userID string) ([]models.Document, error)
	CreateEntry(ctx context.Context, userID string, fields models.Fields) (string, error)
	DeleteEntry(ctx context.Context, userID, entryID string) error
	GetEntry(ctx context.Context, userID, entryID string) (models.Document, bool, error)
}

// RepositoryOptions tunes a Repository. Zero values pick the defaults.
type RepositoryOptions struct {
	// Timeout applies to each store call. Negative disables it.
	Timeout time.Duration
	Now     func() time.Time
	// OnChange is called after every successful write.
	OnChange func(userID string)
}

// Result carries the outcome of an asynchronous repository call.
type Result[T any] struct {
	Value T
	Err   error
}

// Repository owns the in-memory entry list of the signed-in user and keeps
// it in line with the store. The list is replaced as a whole on every
// change, so readers never observe a partial update.
type Repository struct {
	store    EntryStore
	identity Identity
	log      *zap.Logger
	timeout  time.Duration
	now      func() time.Time
	onChange func(string)

	entries atomic.Pointer[[]models.Entry]
	// serialises read-modify-write of the snapshot
	patchMu sync.Mutex

	subsMu  sync.Mutex
	subs    map[int]chan []models.Entry
	nextSub int
	closed  bool
}

// NewRepository creates a repository with an empty list.
func NewRepository(store EntryStore, identity Identity, log *zap.Logger, opts RepositoryOptions) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultStoreTimeout
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	onChange := opts.OnChange
	if onChange == nil {
		onChange = func(string) {}
	}

	r := &Repository{
		store:    store,
		identity: identity,
		log:      log.With(zap.String("component", "entries")),
		timeout:  timeout,
		now:      now,
		onChange: onChange,
		subs:     make(map[int]chan []models.Entry),
	}
	empty := []models.Entry{}
	r.entries.Store(&empty)
	return r
}

// Entries returns a copy of the current list.
func (r *Repository) Entries() []models.Entry {
	return cloneEntries(*r.entries.Load())
}

// Load replaces the list with the user's stored entries, newest first.
// Documents that cannot be mapped are skipped. Without a signed-in user the
// list becomes empty and the store is not contacted.
func (r *Repository) Load(ctx context.Context) ([]models.Entry, error) {
	userID, ok := r.identity.CurrentUserID(ctx)
	if !ok {
		r.mutate(func([]models.Entry) ([]models.Entry, bool) {
			return []models.Entry{}, true
		})
		return []models.Entry{}, nil
	}

	callCtx, cancel := r.callContext(ctx)
	docs, err := r.store.ListEntries(callCtx, userID)
	cancel()
	if err != nil {
		r.log.Warn("list entries failed", zap.String("user_id", userID), zap.Error(err))
		return nil, storeError("list entries", ErrStoreRead, err)
	}

	now := r.now()
	mapped := make([]models.Entry, 0, len(docs))
	for _, doc := range docs {
		entry, ok := FromDocument(doc, now)
		if !ok {
			r.log.Debug("skipping malformed entry document",
				zap.String("user_id", userID),
				zap.String("entry_id", doc.ID),
			)
			continue
		}
		mapped = append(mapped, entry)
	}
	sortEntries(mapped)

	r.mutate(func([]models.Entry) ([]models.Entry, bool) {
		return mapped, true
	})
	return cloneEntries(mapped), nil
}

// Add writes a new entry and refreshes the list from the store. On a failed
// write the list is left as it was.
func (r *Repository) Add(ctx context.Context, title, feeling, content string) (models.Entry, error) {
	userID, ok := r.identity.CurrentUserID(ctx)
	if !ok {
		return models.Entry{}, ErrNotAuthenticated
	}

	now := r.now()
	callCtx, cancel := r.callContext(ctx)
	id, err := r.store.CreateEntry(callCtx, userID, ToDocument(title, feeling, content, now))
	cancel()
	if err != nil {
		r.log.Warn("create entry failed", zap.String("user_id", userID), zap.Error(err))
		return models.Entry{}, storeError("create entry", ErrStoreWrite, err)
	}

	created := models.Entry{
		ID:        id,
		Title:     title,
		Feeling:   feeling,
		Content:   content,
		CreatedAt: now,
		Date:      now,
	}
	r.log.Info("entry created", zap.String("user_id", userID), zap.String("entry_id", id))
	r.onChange(userID)

	if _, err := r.Load(ctx); err != nil {
		r.log.Warn("refresh after create failed", zap.String("user_id", userID), zap.Error(err))
	}
	if entry, ok := r.find(id); ok {
		return entry, nil
	}

	// The write is durable even if the refresh missed it.
	r.mutate(func(cur []models.Entry) ([]models.Entry, bool) {
		if indexOf(cur, id) >= 0 {
			return cur, false
		}
		next := make([]models.Entry, 0, len(cur)+1)
		next = append(next, cur...)
		next = append(next, created)
		sortEntries(next)
		return next, true
	})
	return created, nil
}

// Delete removes an entry from the store and then from the list, matching
// by id. Unknown ids succeed without changing the list.
func (r *Repository) Delete(ctx context.Context, entryID string) error {
	userID, ok := r.identity.CurrentUserID(ctx)
	if !ok {
		return ErrNotAuthenticated
	}

	callCtx, cancel := r.callContext(ctx)
	err := r.store.DeleteEntry(callCtx, userID, entryID)
	cancel()
	if err != nil {
		r.log.Warn("delete entry failed",
			zap.String("user_id", userID),
			zap.String("entry_id", entryID),
			zap.Error(err),
		)
		return storeError("delete entry", ErrStoreWrite, err)
	}

	r.mutate(func(cur []models.Entry) ([]models.Entry, bool) {
		idx := indexOf(cur, entryID)
		if idx < 0 {
			return cur, false
		}
		next := make([]models.Entry, 0, len(cur)-1)
		next = append(next, cur[:idx]...)
		next = append(next, cur[idx+1:]...)
		return next, true
	})
	r.log.Info("entry deleted", zap.String("user_id", userID), zap.String("entry_id", entryID))
	r.onChange(userID)
	return nil
}

// DeleteMany deletes each id independently. The result holds only the ids
// that failed.
func (r *Repository) DeleteMany(ctx context.Context, ids []string) map[string]error {
	var (
		mu     sync.Mutex
		failed = make(map[string]error)
		g      errgroup.Group
	)
	g.SetLimit(deleteConcurrency)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := r.Delete(ctx, id); err != nil {
				mu.Lock()
				failed[id] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return failed
}

// Get returns one entry, from the list when present, otherwise from the store.
func (r *Repository) Get(ctx context.Context, entryID string) (models.Entry, error) {
	userID, ok := r.identity.CurrentUserID(ctx)
	if !ok {
		return models.Entry{}, ErrNotAuthenticated
	}
	if entry, ok := r.find(entryID); ok {
		return entry, nil
	}

	callCtx, cancel := r.callContext(ctx)
	doc, found, err := r.store.GetEntry(callCtx, userID, entryID)
	cancel()
	if err != nil {
		return models.Entry{}, storeError("get entry", ErrStoreRead, err)
	}
	if !found {
		return models.Entry{}, ErrEntryNotFound
	}
	entry, ok := FromDocument(doc, r.now())
	if !ok {
		return models.Entry{}, ErrEntryNotFound
	}
	return entry, nil
}

// LoadAsync runs Load in the background.
func (r *Repository) LoadAsync(ctx context.Context) <-chan Result[[]models.Entry] {
	return runAsync(func() ([]models.Entry, error) { return r.Load(ctx) })
}

// AddAsync runs Add in the background.
func (r *Repository) AddAsync(ctx context.Context, title, feeling, content string) <-chan Result[models.Entry] {
	return runAsync(func() (models.Entry, error) { return r.Add(ctx, title, feeling, content) })
}

// DeleteAsync runs Delete in the background.
func (r *Repository) DeleteAsync(ctx context.Context, entryID string) <-chan Result[struct{}] {
	return runAsync(func() (struct{}, error) { return struct{}{}, r.Delete(ctx, entryID) })
}

// Subscribe returns a channel receiving every new list. Slow readers only
// see the latest list. The returned func unsubscribes.
func (r *Repository) Subscribe() (<-chan []models.Entry, func()) {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()

	ch := make(chan []models.Entry, 1)
	if r.closed {
		close(ch)
		return ch, func() {}
	}
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch

	return ch, func() {
		r.subsMu.Lock()
		defer r.subsMu.Unlock()
		if c, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(c)
		}
	}
}

// Close ends all subscriptions. The repository stays usable.
func (r *Repository) Close() {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for id, ch := range r.subs {
		delete(r.subs, id)
		close(ch)
	}
}

// Closed reports whether Close was called.
func (r *Repository) Closed() bool {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	return r.closed
}

// mutate publishes fn's result when fn reports a change. Subscribers are
// notified under the same lock so they observe lists in publication order.
func (r *Repository) mutate(fn func(cur []models.Entry) ([]models.Entry, bool)) {
	r.patchMu.Lock()
	defer r.patchMu.Unlock()

	next, changed := fn(*r.entries.Load())
	if !changed {
		return
	}
	r.entries.Store(&next)
	r.notify(next)
}

func (r *Repository) notify(list []models.Entry) {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	for _, ch := range r.subs {
		snapshot := cloneEntries(list)
		select {
		case ch <- snapshot:
		default:
			// drop the stale list so the newest one fits
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}

func (r *Repository) find(entryID string) (models.Entry, bool) {
	cur := *r.entries.Load()
	if idx := indexOf(cur, entryID); idx >= 0 {
		return cur[idx], true
	}
	return models.Entry{}, false
}

func (r *Repository) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

func runAsync[T any](fn func() (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		v, err := fn()
		ch <- Result[T]{Value: v, Err: err}
		close(ch)
	}()
	return ch
}

// sortEntries orders newest first, keeping store order for equal timestamps.
func sortEntries(entries []models.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

func indexOf(entries []models.Entry, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneEntries(entries []models.Entry) []models.Entry {
	out := make([]models.Entry, len(entries))
	copy(out, entries)
	return out
}
