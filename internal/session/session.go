package session

import (
	"context"
	"errors"
	"time"

	"github.com/kabilan942/Career-Compass-AI/internal/graph"
)

var ErrNotFound = errors.New("session: not found")

// Session is one conversation. Checkpoint holds the final state of the
// most recent turn.
type Session struct {
	ID         string          `json:"id"`
	History    []graph.Message `json:"history"`
	Checkpoint *graph.State    `json:"checkpoint,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func New(id string, now time.Time) *Session {
	return &Session{ID: id, History: []graph.Message{}, CreatedAt: now, UpdatedAt: now}
}

func (s *Session) clone() *Session {
	c := *s
	c.History = append([]graph.Message(nil), s.History...)
	if s.Checkpoint != nil {
		cp := s.Checkpoint.Clone()
		c.Checkpoint = &cp
	}
	return &c
}

// Repository persists sessions. Load returns ErrNotFound for unknown ids.
type Repository interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
}

// Pinger is implemented by repositories backed by a remote store.
type Pinger interface {
	Ping(ctx context.Context) error
}
