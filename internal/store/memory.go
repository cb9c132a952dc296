package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store used by tests and local development. Watch
// notifications are delivered synchronously on the mutating goroutine, which
// keeps test assertions deterministic.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
	watchers    map[string]map[int]Observer
	nextWatchID int
	now         func() time.Time
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]map[string]Document),
		watchers:    make(map[string]map[int]Observer),
		now:         time.Now,
	}
}

// SetClock overrides the timestamp source. Test helper.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Get returns the document stored at collection/id.
func (m *Memory) Get(_ context.Context, collection, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := cloneDocument(doc)
	return &copied, nil
}

// List returns every document in the collection ordered by creation time.
func (m *Memory) List(_ context.Context, collection string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked(collection), nil
}

// Query applies equality filters, ordering and a limit over the collection.
func (m *Memory) Query(_ context.Context, collection string, q Query) ([]Document, error) {
	m.mu.RLock()
	docs := m.snapshotLocked(collection)
	m.mu.RUnlock()

	filtered := docs[:0:0]
	for _, doc := range docs {
		if matchesFilters(doc, q.Filters) {
			filtered = append(filtered, doc)
		}
	}
	orderDocuments(filtered, q.OrderBy, q.Desc)
	if q.Limit > 0 && len(filtered) > q.Limit {
		filtered = filtered[:q.Limit]
	}
	return filtered, nil
}

// Set writes the document, merging into existing data when merge is true.
func (m *Memory) Set(_ context.Context, collection, id string, data map[string]interface{}, merge bool) error {
	m.mu.Lock()
	docs := m.ensureCollectionLocked(collection)
	now := m.now().UTC()
	existing, ok := docs[id]
	if !ok {
		existing = Document{ID: id, Data: map[string]interface{}{}, CreatedAt: now}
	}
	if merge {
		for k, v := range data {
			existing.Data[k] = v
		}
	} else {
		existing.Data = cloneData(data)
	}
	existing.UpdatedAt = now
	docs[id] = existing
	notify := m.pendingNotifyLocked(collection)
	m.mu.Unlock()
	notify()
	return nil
}

// Update merges partial data into an existing document.
func (m *Memory) Update(_ context.Context, collection, id string, partial map[string]interface{}) error {
	m.mu.Lock()
	docs := m.collections[collection]
	existing, ok := docs[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	for k, v := range partial {
		existing.Data[k] = v
	}
	existing.UpdatedAt = m.now().UTC()
	docs[id] = existing
	notify := m.pendingNotifyLocked(collection)
	m.mu.Unlock()
	notify()
	return nil
}

// Add appends a new document with a generated id and server timestamps.
func (m *Memory) Add(_ context.Context, collection string, data map[string]interface{}) (string, error) {
	id := uuid.NewString()
	m.mu.Lock()
	docs := m.ensureCollectionLocked(collection)
	now := m.now().UTC()
	docs[id] = Document{ID: id, Data: cloneData(data), CreatedAt: now, UpdatedAt: now}
	notify := m.pendingNotifyLocked(collection)
	m.mu.Unlock()
	notify()
	return id, nil
}

// Apply runs the mutator under the store write lock.
func (m *Memory) Apply(_ context.Context, collection, id string, fn Mutator) error {
	m.mu.Lock()
	docs := m.ensureCollectionLocked(collection)
	var current map[string]interface{}
	existing, ok := docs[id]
	if ok {
		current = cloneData(existing.Data)
	}
	mutated, err := fn(current)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	now := m.now().UTC()
	if !ok {
		existing = Document{ID: id, CreatedAt: now}
	}
	existing.Data = mutated
	existing.UpdatedAt = now
	docs[id] = existing
	notify := m.pendingNotifyLocked(collection)
	m.mu.Unlock()
	notify()
	return nil
}

// Watch registers an observer and immediately delivers the current snapshot.
func (m *Memory) Watch(_ context.Context, collection string, obs Observer) (Unsubscribe, error) {
	if obs == nil {
		return nil, fmt.Errorf("store: observer required")
	}
	m.mu.Lock()
	if m.watchers[collection] == nil {
		m.watchers[collection] = make(map[int]Observer)
	}
	m.nextWatchID++
	watchID := m.nextWatchID
	m.watchers[collection][watchID] = obs
	initial := Snapshot{Collection: collection, Documents: m.snapshotLocked(collection)}
	m.mu.Unlock()

	obs(initial)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.watchers[collection], watchID)
			m.mu.Unlock()
		})
	}, nil
}

func (m *Memory) ensureCollectionLocked(collection string) map[string]Document {
	docs, ok := m.collections[collection]
	if !ok {
		docs = make(map[string]Document)
		m.collections[collection] = docs
	}
	return docs
}

func (m *Memory) snapshotLocked(collection string) []Document {
	docs := make([]Document, 0, len(m.collections[collection]))
	for _, doc := range m.collections[collection] {
		docs = append(docs, cloneDocument(doc))
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs
}

// pendingNotifyLocked snapshots the collection while the lock is held and
// returns a delivery func the caller invokes after releasing it, so observers
// may call back into the store without deadlocking.
func (m *Memory) pendingNotifyLocked(collection string) func() {
	observers := make([]Observer, 0, len(m.watchers[collection]))
	for _, obs := range m.watchers[collection] {
		observers = append(observers, obs)
	}
	if len(observers) == 0 {
		return func() {}
	}
	snap := Snapshot{Collection: collection, Documents: m.snapshotLocked(collection)}
	return func() {
		for _, obs := range observers {
			obs(snap)
		}
	}
}

func matchesFilters(doc Document, filters []Filter) bool {
	for _, f := range filters {
		if fmt.Sprint(doc.Data[f.Field]) != fmt.Sprint(f.Value) {
			return false
		}
	}
	return true
}

func orderDocuments(docs []Document, orderBy string, desc bool) {
	if orderBy == "" {
		return
	}
	less := func(i, j int) bool {
		switch orderBy {
		case "createdAt":
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		case "updatedAt":
			return docs[i].UpdatedAt.Before(docs[j].UpdatedAt)
		default:
			return strings.Compare(fmt.Sprint(docs[i].Data[orderBy]), fmt.Sprint(docs[j].Data[orderBy])) < 0
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if desc {
			return less(j, i)
		}
		return less(i, j)
	})
}

func cloneDocument(doc Document) Document {
	doc.Data = cloneData(doc.Data)
	return doc
}

func cloneData(data map[string]interface{}) map[string]interface{} {
	copied := make(map[string]interface{}, len(data))
	for k, v := range data {
		switch typed := v.(type) {
		case map[string]interface{}:
			copied[k] = cloneData(typed)
		case []interface{}:
			nested := make([]interface{}, len(typed))
			for i, item := range typed {
				if m, ok := item.(map[string]interface{}); ok {
					nested[i] = cloneData(m)
				} else {
					nested[i] = item
				}
			}
			copied[k] = nested
		default:
			copied[k] = v
		}
	}
	return copied
}
