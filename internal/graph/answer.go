package graph

import (
	"context"
	"strings"
)

// ContextSeparator joins relevant passages into the generation context.
const ContextSeparator = "\n\n"

func (o *Orchestrator) generateAnswer(ctx context.Context, s State) (State, error) {
	if len(s.History) == 0 {
		return s, structuralf("generation attempted with empty history")
	}

	formatted := strings.Join(s.Documents, ContextSeparator)
	history := cloneMessages(s.History)

	var answer string
	err := o.call(ctx, StepGenerateAnswer, "generator", func(ctx context.Context) error {
		var err error
		answer, err = o.collab.Generator.Generate(ctx, history, formatted, s.RephrasedQuestion)
		return err
	})
	if err != nil {
		return s, err
	}
	return s.appendHistory(AssistantMessage(answer)), nil
}

func cannotAnswer(s State) State {
	return s.appendHistory(AssistantMessage(FallbackAnswer))
}
