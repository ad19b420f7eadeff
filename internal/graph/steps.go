package graph

// Step names a state of the orchestrator.
type Step int

const (
	StepRewriteQuestion Step = iota
	StepRetrieve
	StepGradeDocuments
	StepRefineQuestion
	StepGenerateAnswer
	StepCannotAnswer
	StepDone
)

var stepNames = map[Step]string{
	StepRewriteQuestion: "rewrite_question",
	StepRetrieve:        "retrieve",
	StepGradeDocuments:  "grade_documents",
	StepRefineQuestion:  "refine_question",
	StepGenerateAnswer:  "generate_answer",
	StepCannotAnswer:    "cannot_answer",
	StepDone:            "done",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

// Route is the decision produced by grading.
type Route int

const (
	RouteGenerate Route = iota + 1
	RouteRefine
	RouteCannotAnswer
)

func (r Route) String() string {
	switch r {
	case RouteGenerate:
		return "generate"
	case RouteRefine:
		return "refine"
	case RouteCannotAnswer:
		return "cannot_answer"
	default:
		return "unknown"
	}
}

func (r Route) next() Step {
	switch r {
	case RouteGenerate:
		return StepGenerateAnswer
	case RouteRefine:
		return StepRefineQuestion
	default:
		return StepCannotAnswer
	}
}

// decideRoute applies the grading rule in order: generate when anything
// relevant survived, give up once the refinement budget is spent, else refine.
func decideRoute(s State) Route {
	switch {
	case s.ProceedToGenerate:
		return RouteGenerate
	case s.RefinementCount >= MaxRefinements:
		return RouteCannotAnswer
	default:
		return RouteRefine
	}
}

// Outcome is how a run terminated.
type Outcome string

const (
	OutcomeAnswered     Outcome = "answered"
	OutcomeCannotAnswer Outcome = "cannot_answer"
)
