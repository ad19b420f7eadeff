package graph

import (
	"context"
	"time"
)

// Retriever returns candidate passages for a query, most similar first.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]string, error)
}

// Grader judges whether a passage is relevant to a question.
type Grader interface {
	Grade(ctx context.Context, question, passage string) (bool, error)
}

// Rewriter turns a follow-up question into a standalone query using the
// prior conversation.
type Rewriter interface {
	Rewrite(ctx context.Context, history []Message, question string) (string, error)
}

// Refiner slightly adjusts a query that retrieved nothing useful.
type Refiner interface {
	Refine(ctx context.Context, question string) (string, error)
}

// Generator answers a question from retrieved context and the history.
type Generator interface {
	Generate(ctx context.Context, history []Message, contextText, question string) (string, error)
}

// Observer receives run and call measurements. metrics.Collector
// implements it.
type Observer interface {
	ObserveCall(collaborator string, d time.Duration, err error)
	ObserveRun(outcome Outcome, refinements int, d time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveCall(string, time.Duration, error) {}
func (nopObserver) ObserveRun(Outcome, int, time.Duration)   {}
