package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/kabilan942/Career-Compass-AI/internal/graph"
)

const createSessionsTable = `CREATE TABLE IF NOT EXISTS chat_sessions (
	id         TEXT PRIMARY KEY,
	history    JSONB NOT NULL,
	checkpoint JSONB,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

const (
	selectSession = `SELECT history, checkpoint, created_at, updated_at FROM chat_sessions WHERE id = $1`
	upsertSession = `INSERT INTO chat_sessions (id, history, checkpoint, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET history = EXCLUDED.history, checkpoint = EXCLUDED.checkpoint, updated_at = EXCLUDED.updated_at`
)

// PostgresRepository keeps sessions in the chat_sessions table. Sessions
// never expire here.
type PostgresRepository struct {
	db *sql.DB
}

func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (p *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, createSessionsTable)
	return err
}

func (p *PostgresRepository) Load(ctx context.Context, id string) (*Session, error) {
	var history, checkpoint []byte
	s := Session{ID: id}
	err := p.db.QueryRowContext(ctx, selectSession, id).Scan(&history, &checkpoint, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if err := json.Unmarshal(history, &s.History); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	if len(checkpoint) > 0 {
		s.Checkpoint = new(graph.State)
		if err := json.Unmarshal(checkpoint, s.Checkpoint); err != nil {
			return nil, fmt.Errorf("decode checkpoint: %w", err)
		}
	}
	return &s, nil
}

func (p *PostgresRepository) Save(ctx context.Context, s *Session) error {
	history, err := json.Marshal(s.History)
	if err != nil {
		return err
	}
	// lib/pq sends []byte as bytea, so JSONB parameters go over as text.
	var checkpoint any
	if s.Checkpoint != nil {
		b, err := json.Marshal(s.Checkpoint)
		if err != nil {
			return err
		}
		checkpoint = string(b)
	}
	if _, err := p.db.ExecContext(ctx, upsertSession, s.ID, string(history), checkpoint, s.CreatedAt, s.UpdatedAt); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (p *PostgresRepository) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
