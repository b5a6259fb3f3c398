// Package rounds enforces the bounded-rounds policy: once the question
// budget is exhausted a questions classification is overridden with a
// best-effort solution instead of looping forever.
package rounds

import (
	"github.com/dx-advisor/server/internal/advisor/model"
	logx "github.com/dx-advisor/server/pkg/logger"
)

const DefaultMaxRounds = 5

// ForcedNotice prefixes the message of a force-synthesized solution.
const ForcedNotice = "The question budget has been reached, so this proposal is based on the information gathered so far: "

// Placeholder fields used when the final response carried no usable
// solution hints.
const (
	PlaceholderTool = "best available DX tool"
	PlaceholderTodo = "best next step identified so far"
)

type Policy struct {
	MaxRounds int
}

func NewPolicy(maxRounds int) Policy {
	return Policy{MaxRounds: maxRounds}
}

func (p Policy) max() int {
	if p.MaxRounds <= 0 {
		return DefaultMaxRounds
	}
	return p.MaxRounds
}

// Exhausted reports whether the budget is used up. The check runs against
// the counter as it stood when the model call was issued
// (check-before-increment), so a failed call never burns budget.
func (p Policy) Exhausted(round int) bool {
	return round >= p.max()
}

// Enforce applies the forced-termination rule to a classification. A
// questions outcome under an exhausted budget becomes a synthesized
// solution built from whatever partial fields the response carried;
// everything else passes through untouched.
func (p Policy) Enforce(round int, outcome model.Outcome) model.Outcome {
	if outcome.Kind != model.OutcomeQuestions || !p.Exhausted(round) {
		return outcome
	}

	logx.Warn().
		Int("round", round).
		Int("max_rounds", p.max()).
		Msg("question budget exhausted, forcing solution")

	return model.Outcome{
		Kind:     model.OutcomeSolution,
		Message:  ForcedNotice + outcome.Message,
		Solution: synthesize(outcome),
		Forced:   true,
	}
}

func synthesize(outcome model.Outcome) *model.Solution {
	hints := outcome.Hints

	tools := hints.Tools
	if len(tools) == 0 {
		tools = []string{PlaceholderTool}
	}
	primary := hints.PrimaryTool
	if primary == "" || !member(tools, primary) {
		primary = tools[0]
	}
	todos := hints.Todos
	if len(todos) == 0 {
		todos = []string{PlaceholderTodo}
	}
	combos := hints.ToolCombinations
	if len(combos) == 0 {
		combos = []model.ToolCombination{{
			Tool:    primary,
			Purpose: "primary solution",
			Todos:   todos,
		}}
	}

	return &model.Solution{
		Message:          ForcedNotice + outcome.Message,
		Tools:            tools,
		PrimaryTool:      primary,
		ToolCombinations: combos,
		Todos:            todos,
	}
}

func member(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
