package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a document does not exist at the given path.
var ErrNotFound = errors.New("store: document not found")

// Document is a single stored record plus its server-assigned metadata.
type Document struct {
	ID        string
	Data      map[string]interface{}
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Filter expresses a field equality condition evaluated by the store.
type Filter struct {
	Field string
	Value interface{}
}

// Query describes a filtered, ordered, optionally limited collection read.
type Query struct {
	Filters []Filter
	// OrderBy names a document field, or the pseudo-fields "createdAt" /
	// "updatedAt" which order on server metadata.
	OrderBy string
	Desc    bool
	Limit   int
}

// Snapshot carries the complete state of a collection at notification time.
// Watchers always receive full snapshots, never incremental patches.
type Snapshot struct {
	Collection string
	Documents  []Document
}

// Observer receives collection snapshots.
type Observer func(Snapshot)

// Unsubscribe releases a watch registration. Safe to call more than once.
type Unsubscribe func()

// Mutator transforms document data inside an atomic read-modify-write.
// A nil input map means the document does not exist yet.
type Mutator func(data map[string]interface{}) (map[string]interface{}, error)

// Store is the remote document store boundary. Collections are addressed by
// slash-separated paths; sub-collections are ordinary collections under a
// parent document path (see ChildCollection).
type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	List(ctx context.Context, collection string) ([]Document, error)
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	Set(ctx context.Context, collection, id string, data map[string]interface{}, merge bool) error
	Update(ctx context.Context, collection, id string, partial map[string]interface{}) error
	Add(ctx context.Context, collection string, data map[string]interface{}) (string, error)
	// Apply runs the mutator under the store's write lock (or transaction),
	// making read-modify-write sequences atomic.
	Apply(ctx context.Context, collection, id string, fn Mutator) error
	Watch(ctx context.Context, collection string, obs Observer) (Unsubscribe, error)
}

// ChildCollection builds the path of a sub-collection owned by one document.
func ChildCollection(parent, id, name string) string {
	return parent + "/" + id + "/" + name
}

// String returns the string value of a document field, or "" when absent.
func (d Document) String(field string) string {
	if v, ok := d.Data[field].(string); ok {
		return v
	}
	return ""
}

// Bool returns the boolean value of a document field, or false when absent.
func (d Document) Bool(field string) bool {
	if v, ok := d.Data[field].(bool); ok {
		return v
	}
	return false
}

// Time parses a document field as RFC 3339, falling back to the zero time.
func (d Document) Time(field string) time.Time {
	switch v := d.Data[field].(type) {
	case time.Time:
		return v
	case string:
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			return ts
		}
	}
	return time.Time{}
}
