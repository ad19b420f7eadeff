package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/patrickmn/go-cache"
)

// DocStore maps document ids to their full text.
type DocStore interface {
	Get(ctx context.Context, id string) (string, error)
	Set(ctx context.Context, id, text string) error
	// MGet returns the texts of the ids that exist. Missing ids are absent
	// from the map.
	MGet(ctx context.Context, ids []string) (map[string]string, error)
	MSet(ctx context.Context, docs map[string]string) error
	MDelete(ctx context.Context, ids []string) error
}

type MemoryDocStore struct {
	c *cache.Cache
}

func NewMemoryDocStore() *MemoryDocStore {
	return &MemoryDocStore{c: cache.New(cache.NoExpiration, 0)}
}

func (m *MemoryDocStore) Get(_ context.Context, id string) (string, error) {
	v, ok := m.c.Get(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return v.(string), nil
}

func (m *MemoryDocStore) Set(_ context.Context, id, text string) error {
	m.c.Set(id, text, cache.NoExpiration)
	return nil
}

func (m *MemoryDocStore) MGet(_ context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if v, ok := m.c.Get(id); ok {
			out[id] = v.(string)
		}
	}
	return out, nil
}

func (m *MemoryDocStore) MSet(_ context.Context, docs map[string]string) error {
	for id, text := range docs {
		m.c.Set(id, text, cache.NoExpiration)
	}
	return nil
}

func (m *MemoryDocStore) MDelete(_ context.Context, ids []string) error {
	for _, id := range ids {
		m.c.Delete(id)
	}
	return nil
}

func (m *MemoryDocStore) Len() int { return m.c.ItemCount() }

// LoadMemoryDocStore seeds a memory store from the JSON export at path.
func LoadMemoryDocStore(ctx context.Context, path string) (*MemoryDocStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open docstore export: %w", err)
	}
	defer f.Close()

	s := NewMemoryDocStore()
	if _, err := ImportJSON(ctx, s, f); err != nil {
		return nil, err
	}
	return s, nil
}

type PostgresDocStore struct {
	db DBTX
}

func NewPostgresDocStore(db DBTX) *PostgresDocStore {
	return &PostgresDocStore{db: db}
}

const (
	selectDoc  = "SELECT content FROM docstore WHERE id = $1"
	selectDocs = "SELECT id, content FROM docstore WHERE id = ANY($1)"
	deleteDocs = "DELETE FROM docstore WHERE id = ANY($1)"
	upsertDoc  = `INSERT INTO docstore (id, content) VALUES ($1, $2)
	ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content, updated_at = now()`
)

func (p *PostgresDocStore) Get(ctx context.Context, id string) (string, error) {
	var text string
	err := p.db.QueryRow(ctx, selectDoc, id).Scan(&text)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return text, err
}

func (p *PostgresDocStore) Set(ctx context.Context, id, text string) error {
	_, err := p.db.Exec(ctx, upsertDoc, id, text)
	return err
}

func (p *PostgresDocStore) MGet(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := p.db.Query(ctx, selectDocs, ids)
	if err != nil {
		return nil, fmt.Errorf("docstore mget: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, text string
		if err := rows.Scan(&id, &text); err != nil {
			return nil, err
		}
		out[id] = text
	}
	return out, rows.Err()
}

func (p *PostgresDocStore) MSet(ctx context.Context, docs map[string]string) error {
	if len(docs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for id, text := range docs {
		batch.Queue(upsertDoc, id, text)
	}
	br := p.db.SendBatch(ctx, batch)
	defer br.Close()
	for range docs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("docstore mset: %w", err)
		}
	}
	return nil
}

func (p *PostgresDocStore) MDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := p.db.Exec(ctx, deleteDocs, ids); err != nil {
		return fmt.Errorf("docstore mdelete: %w", err)
	}
	return nil
}

// LoadJSON reads a docstore export of the form {"<doc id>": "<text>"}.
func LoadJSON(r io.Reader) (map[string]string, error) {
	var docs map[string]string
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, fmt.Errorf("decode docstore: %w", err)
	}
	return docs, nil
}

// ImportJSON loads a JSON export into store and reports how many documents
// were written.
func ImportJSON(ctx context.Context, store DocStore, r io.Reader) (int, error) {
	docs, err := LoadJSON(r)
	if err != nil {
		return 0, err
	}
	if err := store.MSet(ctx, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}
