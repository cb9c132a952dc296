package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresOptions configures the Postgres-backed store.
type PostgresOptions struct {
	// DSN is required for the LISTEN connection; queries run on the pool.
	DSN               string
	NotifyChannel     string
	ListenMinInterval time.Duration
	ListenMaxInterval time.Duration
	Logger            *zap.Logger
}

// Postgres stores documents as JSONB rows in a single table and serves watch
// subscriptions through LISTEN/NOTIFY. Every write NOTIFYs its collection
// name inside the writing transaction; the listener re-reads the collection
// and delivers a complete snapshot, matching the snapshot-per-change model of
// the watch contract.
type Postgres struct {
	db      *sqlx.DB
	opts    PostgresOptions
	logger  *zap.Logger
	now     func() time.Time
	listen  sync.Once
	closeFn func()

	mu          sync.Mutex
	watchers    map[string]map[int]Observer
	nextWatchID int
}

// NewPostgres constructs the store over an existing connection pool.
func NewPostgres(db *sqlx.DB, opts PostgresOptions) *Postgres {
	if opts.NotifyChannel == "" {
		opts.NotifyChannel = "docstore_changes"
	}
	if opts.ListenMinInterval <= 0 {
		opts.ListenMinInterval = 100 * time.Millisecond
	}
	if opts.ListenMaxInterval <= 0 {
		opts.ListenMaxInterval = 10 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{
		db:       db,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		watchers: make(map[string]map[int]Observer),
	}
}

type documentRow struct {
	ID        string          `db:"id"`
	Data      json.RawMessage `db:"data"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// Get returns the document stored at collection/id.
func (p *Postgres) Get(ctx context.Context, collection, id string) (*Document, error) {
	const query = `SELECT id, data, created_at, updated_at FROM documents WHERE collection = $1 AND id = $2`
	var row documentRow
	if err := p.db.GetContext(ctx, &row, query, collection, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document %s/%s: %w", collection, id, err)
	}
	return rowToDocument(row)
}

// List returns the collection in creation order.
func (p *Postgres) List(ctx context.Context, collection string) ([]Document, error) {
	const query = `SELECT id, data, created_at, updated_at FROM documents WHERE collection = $1 ORDER BY created_at, id`
	var rows []documentRow
	if err := p.db.SelectContext(ctx, &rows, query, collection); err != nil {
		return nil, fmt.Errorf("list collection %s: %w", collection, err)
	}
	return rowsToDocuments(rows)
}

// Query applies equality filters, ordering and limit in SQL.
func (p *Postgres) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	where := []string{"collection = $1"}
	args := []interface{}{collection}
	for _, f := range q.Filters {
		where = append(where, fmt.Sprintf("data->>'%s' = $%d", sanitizeField(f.Field), len(args)+1))
		args = append(args, fmt.Sprint(f.Value))
	}

	order := "created_at, id"
	switch q.OrderBy {
	case "":
	case "createdAt":
		order = "created_at"
	case "updatedAt":
		order = "updated_at"
	default:
		order = fmt.Sprintf("data->>'%s'", sanitizeField(q.OrderBy))
	}
	if q.Desc {
		order += " DESC"
	}

	query := fmt.Sprintf(`SELECT id, data, created_at, updated_at FROM documents WHERE %s ORDER BY %s`,
		strings.Join(where, " AND "), order)
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	var rows []documentRow
	if err := p.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query collection %s: %w", collection, err)
	}
	return rowsToDocuments(rows)
}

// Set upserts the document. With merge the new data is folded into the
// existing JSONB value instead of replacing it.
func (p *Postgres) Set(ctx context.Context, collection, id string, data map[string]interface{}, merge bool) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, id, err)
	}
	const query = `INSERT INTO documents (collection, id, data, created_at, updated_at)
VALUES ($1, $2, $3, NOW(), NOW())
ON CONFLICT (collection, id) DO UPDATE
SET data = CASE WHEN $4 THEN documents.data || EXCLUDED.data ELSE EXCLUDED.data END, updated_at = NOW()`
	return p.writeAndNotify(ctx, collection, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query, collection, id, payload, merge)
		return err
	})
}

// Update merges partial data into an existing document.
func (p *Postgres) Update(ctx context.Context, collection, id string, partial map[string]interface{}) error {
	payload, err := json.Marshal(partial)
	if err != nil {
		return fmt.Errorf("encode partial %s/%s: %w", collection, id, err)
	}
	const query = `UPDATE documents SET data = data || $3, updated_at = NOW() WHERE collection = $1 AND id = $2`
	return p.writeAndNotify(ctx, collection, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query, collection, id, payload)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Add inserts a new document with a generated id and returns it.
func (p *Postgres) Add(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode document for %s: %w", collection, err)
	}
	id := uuid.NewString()
	const query = `INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES ($1, $2, $3, NOW(), NOW())`
	err = p.writeAndNotify(ctx, collection, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query, collection, id, payload)
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Apply runs the mutator against a row locked FOR UPDATE, so concurrent
// read-modify-write sequences (like toggles) serialize instead of racing.
func (p *Postgres) Apply(ctx context.Context, collection, id string, fn Mutator) error {
	return p.writeAndNotify(ctx, collection, func(tx *sqlx.Tx) error {
		var raw json.RawMessage
		err := tx.GetContext(ctx, &raw, `SELECT data FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`, collection, id)
		var current map[string]interface{}
		switch {
		case err == nil:
			if err := json.Unmarshal(raw, &current); err != nil {
				return fmt.Errorf("decode document %s/%s: %w", collection, id, err)
			}
		case errors.Is(err, sql.ErrNoRows):
			current = nil
		default:
			return err
		}

		mutated, err := fn(current)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(mutated)
		if err != nil {
			return fmt.Errorf("encode mutated %s/%s: %w", collection, id, err)
		}
		const upsert = `INSERT INTO documents (collection, id, data, created_at, updated_at)
VALUES ($1, $2, $3, NOW(), NOW())
ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`
		_, err = tx.ExecContext(ctx, upsert, collection, id, payload)
		return err
	})
}

// Watch registers an observer for the collection. The initial snapshot is
// delivered before Watch returns; later snapshots arrive on the listener
// goroutine whenever a write NOTIFYs the collection.
func (p *Postgres) Watch(ctx context.Context, collection string, obs Observer) (Unsubscribe, error) {
	if obs == nil {
		return nil, fmt.Errorf("store: observer required")
	}
	p.ensureListener()

	p.mu.Lock()
	if p.watchers[collection] == nil {
		p.watchers[collection] = make(map[int]Observer)
	}
	p.nextWatchID++
	watchID := p.nextWatchID
	p.watchers[collection][watchID] = obs
	p.mu.Unlock()

	docs, err := p.List(ctx, collection)
	if err != nil {
		p.mu.Lock()
		delete(p.watchers[collection], watchID)
		p.mu.Unlock()
		return nil, err
	}
	obs(Snapshot{Collection: collection, Documents: docs})

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.watchers[collection], watchID)
			p.mu.Unlock()
		})
	}, nil
}

// Close stops the notification listener.
func (p *Postgres) Close() error {
	if p.closeFn != nil {
		p.closeFn()
	}
	return nil
}

func (p *Postgres) writeAndNotify(ctx context.Context, collection string, write func(tx *sqlx.Tx) error) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write: %w", err)
	}
	if err := write(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, p.opts.NotifyChannel, collection); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("notify %s: %w", collection, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit write: %w", err)
	}
	return nil
}

func (p *Postgres) ensureListener() {
	p.listen.Do(func() {
		if p.opts.DSN == "" {
			p.logger.Warn("store listener disabled, no DSN configured")
			return
		}
		listener := pq.NewListener(p.opts.DSN, p.opts.ListenMinInterval, p.opts.ListenMaxInterval, func(ev pq.ListenerEventType, err error) {
			if err != nil {
				p.logger.Warn("store listener event", zap.Int("event", int(ev)), zap.Error(err))
			}
		})
		if err := listener.Listen(p.opts.NotifyChannel); err != nil {
			p.logger.Error("store listener failed to subscribe", zap.String("channel", p.opts.NotifyChannel), zap.Error(err))
			_ = listener.Close()
			return
		}

		done := make(chan struct{})
		p.closeFn = func() {
			close(done)
			_ = listener.Close()
		}
		go p.dispatch(listener, done)
	})
}

func (p *Postgres) dispatch(listener *pq.Listener, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case notification, ok := <-listener.Notify:
			if !ok {
				return
			}
			if notification == nil {
				// reconnect marker; re-deliver every watched collection
				p.mu.Lock()
				collections := make([]string, 0, len(p.watchers))
				for collection := range p.watchers {
					collections = append(collections, collection)
				}
				p.mu.Unlock()
				for _, collection := range collections {
					p.deliver(collection)
				}
				continue
			}
			p.deliver(notification.Extra)
		}
	}
}

// deliver re-reads the collection and fans the snapshot out to its watchers.
func (p *Postgres) deliver(collection string) {
	p.mu.Lock()
	observers := make([]Observer, 0, len(p.watchers[collection]))
	for _, obs := range p.watchers[collection] {
		observers = append(observers, obs)
	}
	p.mu.Unlock()
	if len(observers) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	docs, err := p.List(ctx, collection)
	if err != nil {
		p.logger.Warn("snapshot reload failed", zap.String("collection", collection), zap.Error(err))
		return
	}
	snap := Snapshot{Collection: collection, Documents: docs}
	for _, obs := range observers {
		obs(snap)
	}
}

func rowToDocument(row documentRow) (*Document, error) {
	data := map[string]interface{}{}
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &data); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", row.ID, err)
		}
	}
	return &Document{ID: row.ID, Data: data, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}, nil
}

func rowsToDocuments(rows []documentRow) ([]Document, error) {
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		doc, err := rowToDocument(row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// sanitizeField guards the JSONB accessor built by string interpolation.
func sanitizeField(field string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return -1
	}, field)
}
