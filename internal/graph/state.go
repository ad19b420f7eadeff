package graph

// MaxRefinements caps refine-and-retrieve attempts per run. With the initial
// retrieval this allows three retrieval passes in total.
const MaxRefinements = 2

// FallbackAnswer is the assistant reply when no relevant passage is found.
const FallbackAnswer = "I'm sorry, but I cannot find the information you're looking for."

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a session's conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// State is the record carried through one orchestrator run. Steps never
// mutate a State in place; each returns a new value.
type State struct {
	History           []Message `json:"history"`
	Question          string    `json:"question"`
	RephrasedQuestion string    `json:"rephrased_question"`
	Documents         []string  `json:"documents"`
	ProceedToGenerate bool      `json:"proceed_to_generate"`
	RefinementCount   int       `json:"refinement_count"`
}

// NewState seeds a run from a session's history and the latest utterance.
func NewState(history []Message, question string) State {
	return State{
		History:  cloneMessages(history),
		Question: question,
	}
}

// LastMessage returns the newest history entry.
func (s State) LastMessage() (Message, bool) {
	if len(s.History) == 0 {
		return Message{}, false
	}
	return s.History[len(s.History)-1], true
}

// Clone returns a deep copy so callers can keep a State past its run.
func (s State) Clone() State {
	out := s
	out.History = cloneMessages(s.History)
	out.Documents = cloneStrings(s.Documents)
	return out
}

func (s State) appendHistory(msgs ...Message) State {
	out := s
	out.History = make([]Message, 0, len(s.History)+len(msgs))
	out.History = append(out.History, s.History...)
	out.History = append(out.History, msgs...)
	return out
}

func cloneMessages(in []Message) []Message {
	if in == nil {
		return nil
	}
	out := make([]Message, len(in))
	copy(out, in)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
