package graph

import (
	"context"
	"fmt"
	"sync"
)

// scriptedRetriever returns passes[i] on the i-th call and the last entry
// once the script runs out.
type scriptedRetriever struct {
	mu      sync.Mutex
	passes  [][]string
	queries []string
	err     error
}

func (r *scriptedRetriever) Retrieve(ctx context.Context, query string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, query)
	if r.err != nil {
		return nil, r.err
	}
	if len(r.passes) == 0 {
		return nil, nil
	}
	i := len(r.queries) - 1
	if i >= len(r.passes) {
		i = len(r.passes) - 1
	}
	return r.passes[i], nil
}

type setGrader struct {
	relevant map[string]bool
	calls    int
	err      error
}

func (g *setGrader) Grade(ctx context.Context, question, passage string) (bool, error) {
	g.calls++
	if g.err != nil {
		return false, g.err
	}
	return g.relevant[passage], nil
}

type recordingRewriter struct {
	calls     int
	histories [][]Message
	questions []string
	err       error
}

func (r *recordingRewriter) Rewrite(ctx context.Context, history []Message, question string) (string, error) {
	r.calls++
	r.histories = append(r.histories, history)
	r.questions = append(r.questions, question)
	if r.err != nil {
		return "", r.err
	}
	return "standalone: " + question, nil
}

type countingRefiner struct {
	calls int
	err   error
}

func (r *countingRefiner) Refine(ctx context.Context, question string) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return fmt.Sprintf("%s (refined %d)", question, r.calls), nil
}

type fixedGenerator struct {
	answer   string
	calls    int
	contexts []string
	err      error
}

func (g *fixedGenerator) Generate(ctx context.Context, history []Message, contextText, question string) (string, error) {
	g.calls++
	g.contexts = append(g.contexts, contextText)
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

type blockingRetriever struct{}

func (blockingRetriever) Retrieve(ctx context.Context, query string) ([]string, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type fakes struct {
	retriever *scriptedRetriever
	grader    *setGrader
	rewriter  *recordingRewriter
	refiner   *countingRefiner
	generator *fixedGenerator
}

func newFakes(passes [][]string, relevant ...string) *fakes {
	set := make(map[string]bool, len(relevant))
	for _, r := range relevant {
		set[r] = true
	}
	return &fakes{
		retriever: &scriptedRetriever{passes: passes},
		grader:    &setGrader{relevant: set},
		rewriter:  &recordingRewriter{},
		refiner:   &countingRefiner{},
		generator: &fixedGenerator{answer: "generated answer"},
	}
}

func (f *fakes) collaborators() Collaborators {
	return Collaborators{
		Retriever: f.retriever,
		Grader:    f.grader,
		Rewriter:  f.rewriter,
		Refiner:   f.refiner,
		Generator: f.generator,
	}
}
