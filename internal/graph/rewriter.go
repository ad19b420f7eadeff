package graph

import (
	"context"

	"go.uber.org/zap"
)

// rewriteQuestion resets the per-run fields, records the question in the
// history and produces the working query. The first turn of a session is
// passed through verbatim.
func (o *Orchestrator) rewriteQuestion(ctx context.Context, s State) (State, error) {
	next := State{
		History:  s.History,
		Question: s.Question,
	}

	if last, ok := next.LastMessage(); !ok || last != UserMessage(s.Question) {
		next = next.appendHistory(UserMessage(s.Question))
	}

	if len(next.History) <= 1 {
		next.RephrasedQuestion = s.Question
		return next, nil
	}

	prior := cloneMessages(next.History[:len(next.History)-1])
	var rephrased string
	err := o.call(ctx, StepRewriteQuestion, "rewriter", func(ctx context.Context) error {
		var err error
		rephrased, err = o.collab.Rewriter.Rewrite(ctx, prior, s.Question)
		return err
	})
	if err != nil {
		return s, err
	}
	o.logger.Debug("rephrased question", zap.String("rephrased", rephrased))
	next.RephrasedQuestion = rephrased
	return next, nil
}
