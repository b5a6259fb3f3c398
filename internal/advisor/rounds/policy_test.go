package rounds

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dx-advisor/server/internal/advisor/model"
)

func questionsOutcome() model.Outcome {
	return model.Outcome{
		Kind:      model.OutcomeQuestions,
		Message:   "need more detail",
		Questions: []string{"q1", "q2"},
	}
}

func TestEnforcePassesThroughBelowBudget(t *testing.T) {
	p := NewPolicy(5)
	out := p.Enforce(4, questionsOutcome())
	assert.Equal(t, model.OutcomeQuestions, out.Kind)
	assert.False(t, out.Forced)
}

func TestEnforceForcesSolutionAtBudget(t *testing.T) {
	p := NewPolicy(5)
	out := p.Enforce(5, questionsOutcome())

	require.Equal(t, model.OutcomeSolution, out.Kind)
	assert.True(t, out.Forced)
	require.NotNil(t, out.Solution)
	assert.True(t, strings.HasPrefix(out.Message, ForcedNotice))
	assert.Contains(t, out.Message, "need more detail")
}

func TestEnforceSynthesizesFromHints(t *testing.T) {
	p := NewPolicy(5)
	outcome := questionsOutcome()
	outcome.Hints = model.SolutionHints{
		Tools: []string{"RPA", "OCR"},
		Todos: []string{"map the process"},
	}

	out := p.Enforce(6, outcome)
	require.Equal(t, model.OutcomeSolution, out.Kind)
	assert.Equal(t, []string{"RPA", "OCR"}, out.Solution.Tools)
	assert.Equal(t, "RPA", out.Solution.PrimaryTool)
	assert.Equal(t, []string{"map the process"}, out.Solution.Todos)
	require.Len(t, out.Solution.ToolCombinations, 1)
}

func TestEnforceFallsBackToPlaceholders(t *testing.T) {
	p := NewPolicy(5)
	out := p.Enforce(5, questionsOutcome())

	assert.Equal(t, []string{PlaceholderTool}, out.Solution.Tools)
	assert.Equal(t, PlaceholderTool, out.Solution.PrimaryTool)
	assert.Equal(t, []string{PlaceholderTodo}, out.Solution.Todos)
}

func TestEnforceLeavesSolutionsAlone(t *testing.T) {
	p := NewPolicy(5)
	outcome := model.Outcome{
		Kind:     model.OutcomeSolution,
		Message:  "proposal",
		Solution: &model.Solution{Tools: []string{"A"}, PrimaryTool: "A"},
	}

	out := p.Enforce(99, outcome)
	assert.Equal(t, outcome, out)
	assert.False(t, out.Forced)
}

func TestExhaustedUsesCheckBeforeIncrement(t *testing.T) {
	p := NewPolicy(5)
	assert.False(t, p.Exhausted(4))
	assert.True(t, p.Exhausted(5))
	assert.True(t, p.Exhausted(6), "overshoot still forces termination")
}

func TestZeroPolicyDefaultsToFiveRounds(t *testing.T) {
	p := Policy{}
	assert.False(t, p.Exhausted(DefaultMaxRounds-1))
	assert.True(t, p.Exhausted(DefaultMaxRounds))
}
