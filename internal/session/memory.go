package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryRepository keeps sessions in process. Sessions idle for longer
// than ttl expire; a zero ttl keeps them forever.
type MemoryRepository struct {
	c   *cache.Cache
	ttl time.Duration
}

func NewMemoryRepository(ttl time.Duration) *MemoryRepository {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	cleanup := 10 * time.Minute
	if ttl > 0 && ttl < cleanup {
		cleanup = ttl
	}
	return &MemoryRepository{c: cache.New(ttl, cleanup), ttl: ttl}
}

func (m *MemoryRepository) Load(_ context.Context, id string) (*Session, error) {
	v, ok := m.c.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return v.(*Session).clone(), nil
}

func (m *MemoryRepository) Save(_ context.Context, s *Session) error {
	m.c.Set(s.ID, s.clone(), m.ttl)
	return nil
}

func (m *MemoryRepository) Len() int { return m.c.ItemCount() }
