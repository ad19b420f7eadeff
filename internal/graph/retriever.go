package graph

import (
	"context"

	"go.uber.org/zap"
)

func (o *Orchestrator) retrieve(ctx context.Context, s State) (State, error) {
	var docs []string
	err := o.call(ctx, StepRetrieve, "retriever", func(ctx context.Context) error {
		var err error
		docs, err = o.collab.Retriever.Retrieve(ctx, s.RephrasedQuestion)
		return err
	})
	if err != nil {
		return s, err
	}
	next := s.Clone()
	next.Documents = cloneStrings(docs)
	o.logger.Debug("retrieved documents",
		zap.Int("retrieved", len(docs)),
		zap.Int("refinement_count", s.RefinementCount))
	return next, nil
}
