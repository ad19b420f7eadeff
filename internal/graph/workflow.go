package graph

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultCallTimeout bounds each collaborator call when no timeout is set.
const DefaultCallTimeout = 60 * time.Second

// Collaborators are the external services one run coordinates.
type Collaborators struct {
	Retriever Retriever
	Grader    Grader
	Rewriter  Rewriter
	Refiner   Refiner
	Generator Generator
}

func (c Collaborators) validate() error {
	switch {
	case c.Retriever == nil:
		return errors.New("graph: retriever is required")
	case c.Grader == nil:
		return errors.New("graph: grader is required")
	case c.Rewriter == nil:
		return errors.New("graph: rewriter is required")
	case c.Refiner == nil:
		return errors.New("graph: refiner is required")
	case c.Generator == nil:
		return errors.New("graph: generator is required")
	}
	return nil
}

// Result is the terminal output of one run.
type Result struct {
	State   State
	Outcome Outcome
	Answer  string
	Steps   []Step
}

// Orchestrator drives rewrite → retrieve → grade → (generate | refine | give up)
// for a single conversational turn.
type Orchestrator struct {
	collab      Collaborators
	callTimeout time.Duration
	logger      *zap.Logger
	tracer      trace.Tracer
	observer    Observer
}

type Option func(*Orchestrator)

// WithCallTimeout bounds every collaborator call. Zero disables the bound.
func WithCallTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.callTimeout = d }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observer = obs
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

func New(collab Collaborators, opts ...Option) (*Orchestrator, error) {
	if err := collab.validate(); err != nil {
		return nil, err
	}
	o := &Orchestrator{
		collab:      collab,
		callTimeout: DefaultCallTimeout,
		logger:      zap.NewNop(),
		tracer:      otel.Tracer("github.com/kabilan942/Career-Compass-AI/internal/graph"),
		observer:    nopObserver{},
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With(zap.String("component", "orchestrator"))
	return o, nil
}

// Run executes one turn. history is the session history before this turn;
// it is not modified. The returned State carries the updated history.
func (o *Orchestrator) Run(ctx context.Context, history []Message, question string) (*Result, error) {
	start := time.Now()
	state := NewState(history, question)
	res := &Result{}

	step := StepRewriteQuestion
	for step != StepDone {
		res.Steps = append(res.Steps, step)

		stepCtx, span := o.tracer.Start(ctx, step.String(),
			trace.WithAttributes(attribute.Int("refinement_count", state.RefinementCount)))
		next, nextStep, err := o.dispatch(stepCtx, step, state)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			o.logger.Warn("run failed", zap.Stringer("step", step), zap.Error(err))
			return nil, err
		}
		span.End()

		switch step {
		case StepGenerateAnswer:
			res.Outcome = OutcomeAnswered
		case StepCannotAnswer:
			res.Outcome = OutcomeCannotAnswer
		}
		state, step = next, nextStep
	}

	last, _ := state.LastMessage()
	res.State = state
	res.Answer = last.Content
	o.observer.ObserveRun(res.Outcome, state.RefinementCount, time.Since(start))
	o.logger.Debug("run finished",
		zap.String("outcome", string(res.Outcome)),
		zap.Int("refinement_count", state.RefinementCount),
		zap.Duration("duration", time.Since(start)))
	return res, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, step Step, s State) (State, Step, error) {
	o.logger.Debug("entering step", zap.Stringer("step", step))
	switch step {
	case StepRewriteQuestion:
		next, err := o.rewriteQuestion(ctx, s)
		return next, StepRetrieve, err
	case StepRetrieve:
		next, err := o.retrieve(ctx, s)
		return next, StepGradeDocuments, err
	case StepGradeDocuments:
		next, route, err := o.gradeDocuments(ctx, s)
		if err != nil {
			return s, StepDone, err
		}
		o.logger.Debug("routing", zap.Stringer("route", route))
		return next, route.next(), nil
	case StepRefineQuestion:
		next, err := o.refineQuestion(ctx, s)
		return next, StepRetrieve, err
	case StepGenerateAnswer:
		next, err := o.generateAnswer(ctx, s)
		return next, StepDone, err
	case StepCannotAnswer:
		return cannotAnswer(s), StepDone, nil
	default:
		return s, StepDone, structuralf("no transition from step %s", step)
	}
}

// call runs fn under the per-call timeout and converts any failure into a
// CollaboratorError.
func (o *Orchestrator) call(ctx context.Context, step Step, collaborator string, fn func(context.Context) error) error {
	if o.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.callTimeout)
		defer cancel()
	}
	start := time.Now()
	err := fn(ctx)
	o.observer.ObserveCall(collaborator, time.Since(start), err)
	if err != nil {
		return &CollaboratorError{Collaborator: collaborator, Step: step, Err: err}
	}
	return nil
}
