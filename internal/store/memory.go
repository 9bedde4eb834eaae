package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/AnshRaj112/diary-backend/internal/models"
	"github.com/google/uuid"
)

// Memory is an in-process entry store. It backs tests and the
// STORE_DRIVER=memory development mode.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]memDoc
	seq  int64

	failures map[string]error
	calls    map[string]int
}

type memDoc struct {
	seq int64
	doc models.Document
}

// Store operation names, used with Fail and Calls.
const (
	OpList   = "list"
	OpCreate = "create"
	OpDelete = "delete"
	OpGet    = "get"
)

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		docs:     make(map[string][]memDoc),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// Fail makes every call of op return err until cleared with a nil err.
func (m *Memory) Fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// Calls reports how many times op was invoked.
func (m *Memory) Calls(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

// Put stores a raw document as is, for seeding legacy or malformed records.
func (m *Memory) Put(userID string, doc models.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.docs[userID] = append(m.docs[userID], memDoc{seq: m.seq, doc: copyDoc(doc)})
}

func (m *Memory) ListEntries(ctx context.Context, userID string) ([]models.Document, error) {
	if err := m.enter(ctx, OpList); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := make([]memDoc, len(m.docs[userID]))
	copy(stored, m.docs[userID])
	sort.SliceStable(stored, func(i, j int) bool {
		ti, tj := createdAt(stored[i].doc), createdAt(stored[j].doc)
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return stored[i].seq > stored[j].seq
	})

	out := make([]models.Document, 0, len(stored))
	for _, d := range stored {
		out = append(out, copyDoc(d.doc))
	}
	return out, nil
}

func (m *Memory) CreateEntry(ctx context.Context, userID string, fields models.Fields) (string, error) {
	if err := m.enter(ctx, OpCreate); err != nil {
		return "", err
	}
	id := uuid.NewString()
	m.Put(userID, models.Document{ID: id, Fields: fields})
	return id, nil
}

func (m *Memory) DeleteEntry(ctx context.Context, userID, entryID string) error {
	if err := m.enter(ctx, OpDelete); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.docs[userID]
	for i := range docs {
		if docs[i].doc.ID == entryID {
			m.docs[userID] = append(docs[:i:i], docs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *Memory) GetEntry(ctx context.Context, userID, entryID string) (models.Document, bool, error) {
	if err := m.enter(ctx, OpGet); err != nil {
		return models.Document{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, d := range m.docs[userID] {
		if d.doc.ID == entryID {
			return copyDoc(d.doc), true, nil
		}
	}
	return models.Document{}, false, nil
}

// enter records the call and returns the injected failure or the context
// error, if any.
func (m *Memory) enter(ctx context.Context, op string) error {
	m.mu.Lock()
	m.calls[op]++
	err := m.failures[op]
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return ctx.Err()
}

func createdAt(doc models.Document) time.Time {
	t, _ := doc.Fields[models.FieldCreatedAt].(time.Time)
	return t
}

func copyDoc(doc models.Document) models.Document {
	fields := make(models.Fields, len(doc.Fields))
	for k, v := range doc.Fields {
		fields[k] = v
	}
	return models.Document{ID: doc.ID, Fields: fields}
}
