package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kabilan942/Career-Compass-AI/internal/graph"
)

// Rewriter rephrases follow-up questions into standalone retrieval queries.
type Rewriter struct {
	model ChatModel
}

func NewRewriter(model ChatModel) *Rewriter {
	return &Rewriter{model: model}
}

func (r *Rewriter) Rewrite(ctx context.Context, history []graph.Message, question string) (string, error) {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, System(rewriteSystemPrompt))
	for _, m := range history {
		messages = append(messages, Message{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, User(question))
	return r.model.Chat(ctx, messages)
}

// Grader asks the model for a yes/no relevance verdict on one passage.
type Grader struct {
	model ChatModel
}

func NewGrader(model ChatModel) *Grader {
	return &Grader{model: model}
}

type gradeResponse struct {
	Score string `json:"score"`
}

func (g *Grader) Grade(ctx context.Context, question, passage string) (bool, error) {
	messages := []Message{
		System(gradeSystemPrompt),
		User(fmt.Sprintf("User question: %s\n\nRetrieved document:\n%s", question, passage)),
	}
	out, err := g.model.Chat(ctx, messages, WithJSON(), WithTemperature(0))
	if err != nil {
		return false, err
	}
	return parseGrade(out), nil
}

// parseGrade accepts {"score": "Yes"} as well as a bare Yes/No answer.
// Anything that is not a yes counts as not relevant.
func parseGrade(out string) bool {
	score := strings.TrimSpace(out)
	var resp gradeResponse
	if err := json.Unmarshal([]byte(score), &resp); err == nil && resp.Score != "" {
		score = resp.Score
	}
	score = strings.ToLower(strings.Trim(strings.TrimSpace(score), `."'`))
	return strings.HasPrefix(score, "yes")
}

// Refiner nudges a query that found nothing relevant.
type Refiner struct {
	model ChatModel
}

func NewRefiner(model ChatModel) *Refiner {
	return &Refiner{model: model}
}

func (r *Refiner) Refine(ctx context.Context, question string) (string, error) {
	messages := []Message{
		System(refineSystemPrompt),
		User(fmt.Sprintf("Original question: %s\n\nProvide a slightly refined question.", question)),
	}
	return r.model.Chat(ctx, messages)
}

// Generator writes the final answer from the graded passages.
type Generator struct {
	model ChatModel
}

func NewGenerator(model ChatModel) *Generator {
	return &Generator{model: model}
}

func (g *Generator) Generate(ctx context.Context, history []graph.Message, contextText, question string) (string, error) {
	prompt := fmt.Sprintf(answerTemplate, formatHistory(history), contextText, question)
	return g.model.Chat(ctx, []Message{User(prompt)}, WithTemperature(0))
}

func formatHistory(history []graph.Message) string {
	var b strings.Builder
	for i, m := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s", m.Role, m.Content)
	}
	return b.String()
}

var (
	_ graph.Rewriter  = (*Rewriter)(nil)
	_ graph.Grader    = (*Grader)(nil)
	_ graph.Refiner   = (*Refiner)(nil)
	_ graph.Generator = (*Generator)(nil)
)
