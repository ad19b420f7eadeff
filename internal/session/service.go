package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kabilan942/Career-Compass-AI/internal/graph"
)

var ErrEmptyQuestion = errors.New("session: empty question")

// Runner executes one conversational turn.
type Runner interface {
	Run(ctx context.Context, history []graph.Message, question string) (*graph.Result, error)
}

type TurnResult struct {
	SessionID         string        `json:"session_id"`
	Answer            string        `json:"answer"`
	Outcome           graph.Outcome `json:"outcome"`
	RephrasedQuestion string        `json:"rephrased_question"`
	RefinementCount   int           `json:"refinement_count"`
}

// Service owns session history and serialises turns per session.
type Service struct {
	repo   Repository
	runner Runner
	locks  *lockTable
	logger *zap.Logger
	now    func() time.Time
	newID  func() string

	turnTimeout time.Duration
}

type ServiceOption func(*Service)

// WithTurnTimeout caps the time one turn may take, refinement loops
// included. Zero leaves turns bounded only by the caller's context.
func WithTurnTimeout(d time.Duration) ServiceOption {
	return func(s *Service) { s.turnTimeout = d }
}

func NewService(repo Repository, runner Runner, logger *zap.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		repo:   repo,
		runner: runner,
		locks:  newLockTable(),
		logger: logger.With(zap.String("component", "session")),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) NewSession(ctx context.Context) (*Session, error) {
	sess := New(s.newID(), s.now())
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// HandleTurn runs one question through the pipeline and appends the
// exchange to the session. Unknown ids start a new session. Nothing is
// saved when the run fails or runs past the turn timeout.
func (s *Service) HandleTurn(ctx context.Context, sessionID, utterance string) (*TurnResult, error) {
	if strings.TrimSpace(utterance) == "" {
		return nil, ErrEmptyQuestion
	}
	if sessionID == "" {
		sessionID = s.newID()
	}
	if s.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.turnTimeout)
		defer cancel()
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	sess, err := s.repo.Load(ctx, sessionID)
	switch {
	case errors.Is(err, ErrNotFound):
		sess = New(sessionID, s.now())
	case err != nil:
		return nil, err
	}

	res, err := s.runner.Run(ctx, sess.History, utterance)
	if ctxErr := ctx.Err(); ctxErr != nil {
		// the deadline, not the call it happened to interrupt
		return nil, fmt.Errorf("turn aborted: %w", ctxErr)
	}
	if err != nil {
		return nil, err
	}

	checkpoint := res.State.Clone()
	sess.History = res.State.History
	sess.Checkpoint = &checkpoint
	sess.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.logger.Info("turn completed",
		zap.String("session_id", sessionID),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("refinement_count", res.State.RefinementCount),
		zap.Int("history_len", len(sess.History)))

	return &TurnResult{
		SessionID:         sessionID,
		Answer:            res.Answer,
		Outcome:           res.Outcome,
		RephrasedQuestion: res.State.RephrasedQuestion,
		RefinementCount:   res.State.RefinementCount,
	}, nil
}

func (s *Service) History(ctx context.Context, sessionID string) ([]graph.Message, error) {
	sess, err := s.repo.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.History, nil
}

// Ping checks the session backend when it is remote.
func (s *Service) Ping(ctx context.Context) error {
	if p, ok := s.repo.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
