package graph

import (
	"context"

	"go.uber.org/zap"
)

func (o *Orchestrator) refineQuestion(ctx context.Context, s State) (State, error) {
	if s.RefinementCount >= MaxRefinements {
		return s, structuralf("refinement requested with count %d at limit %d", s.RefinementCount, MaxRefinements)
	}

	var refined string
	err := o.call(ctx, StepRefineQuestion, "refiner", func(ctx context.Context) error {
		var err error
		refined, err = o.collab.Refiner.Refine(ctx, s.RephrasedQuestion)
		return err
	})
	if err != nil {
		return s, err
	}

	next := s.Clone()
	next.RephrasedQuestion = refined
	next.RefinementCount++
	o.logger.Debug("refined question",
		zap.String("refined", refined),
		zap.Int("refinement_count", next.RefinementCount))
	return next, nil
}
