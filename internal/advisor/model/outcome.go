package model

// OutcomeKind discriminates the three possible classifications of a model
// response.
type OutcomeKind string

const (
	OutcomeQuestions OutcomeKind = "questions"
	OutcomeSolution  OutcomeKind = "solution"
	OutcomeFailure   OutcomeKind = "failure"
)

// Route is the internal decision tag used only to select the next system
// prompt in multi-prompt mode. It never reaches the normalizer as a
// terminal classification.
type Route string

const (
	RouteQuestions Route = "questions"
	RouteSolution  Route = "solution"
)

// SolutionHints carries whatever solution-shaped fields a response
// happened to include regardless of its classification. The round policy
// uses them to synthesize a best-effort solution on forced termination.
type SolutionHints struct {
	Tools            []string
	PrimaryTool      string
	ToolCombinations []ToolCombination
	Todos            []string
}

// Outcome is the normalized classification of one raw model response.
// Exactly one of Questions / Solution / Reason is meaningful, selected by
// Kind.
type Outcome struct {
	Kind      OutcomeKind
	Message   string
	Questions []string
	Solution  *Solution
	Reason    string
	Hints     SolutionHints

	// Forced marks a solution synthesized by the round policy from a
	// questions classification. A forced solution is terminal.
	Forced bool
}

// Failure builds a failure outcome with the given reason.
func Failure(reason string) Outcome {
	return Outcome{Kind: OutcomeFailure, Reason: reason}
}
