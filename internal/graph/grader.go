package graph

import (
	"context"

	"go.uber.org/zap"
)

// gradeDocuments keeps each candidate the grader marks relevant, preserving
// retrieval order, and decides where the run goes next.
func (o *Orchestrator) gradeDocuments(ctx context.Context, s State) (State, Route, error) {
	relevant := make([]string, 0, len(s.Documents))
	for _, doc := range s.Documents {
		var ok bool
		err := o.call(ctx, StepGradeDocuments, "grader", func(ctx context.Context) error {
			var err error
			ok, err = o.collab.Grader.Grade(ctx, s.RephrasedQuestion, doc)
			return err
		})
		if err != nil {
			return s, 0, err
		}
		o.logger.Debug("graded document", zap.String("document", preview(doc, 30)), zap.Bool("relevant", ok))
		if ok {
			relevant = append(relevant, doc)
		}
	}

	next := s.Clone()
	next.Documents = relevant
	next.ProceedToGenerate = len(relevant) > 0
	return next, decideRoute(next), nil
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
