package model

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStage(t *testing.T) {
	cases := []struct {
		in   string
		want Stage
	}{
		{"INITIAL_INPUT", StageInitialInput},
		{"PROCESSING_INITIAL", StageProcessing},
		{"AWAITING_ANSWERS", StageAwaitingAnswers},
		{"SHOWING_SOLUTION", StageShowingSolution},
		{"ERROR", StageError},
		{"", StageInitialInput},
		{"garbage", StageInitialInput},
		{"initial_input", StageInitialInput}, // case sensitive by contract
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseStage(tc.in), tc.in)
	}
}

func TestStageValid(t *testing.T) {
	assert.True(t, StageAwaitingAnswers.Valid())
	assert.False(t, Stage("DONE").Valid())
}

func TestCloneIsDeep(t *testing.T) {
	state := NewConversationState()
	state.Stage = StageAwaitingAnswers
	state.History = []*schema.Message{schema.UserMessage("hello")}
	state.PendingQuestions = []string{"q1"}
	state.Answers["q0"] = "a0"
	state.Attachments["f.csv"] = Attachment{Summary: "s"}
	state.Solution = &Solution{
		Tools:            []string{"chatbot"},
		PrimaryTool:      "chatbot",
		Todos:            []string{"do it"},
		ToolCombinations: []ToolCombination{{Tool: "chatbot", Purpose: "p", Todos: []string{"t"}}},
	}

	clone := state.Clone()
	clone.History = append(clone.History, schema.UserMessage("more"))
	clone.PendingQuestions[0] = "changed"
	clone.Answers["q0"] = "changed"
	clone.Attachments["f.csv"] = Attachment{Summary: "changed"}
	clone.Solution.Tools[0] = "changed"
	clone.Solution.ToolCombinations[0].Todos[0] = "changed"

	assert.Len(t, state.History, 1)
	assert.Equal(t, "q1", state.PendingQuestions[0])
	assert.Equal(t, "a0", state.Answers["q0"])
	assert.Equal(t, "s", state.Attachments["f.csv"].Summary)
	assert.Equal(t, "chatbot", state.Solution.Tools[0])
	assert.Equal(t, "t", state.Solution.ToolCombinations[0].Todos[0])
}

func TestResetPreservesIdentityOnly(t *testing.T) {
	state := NewConversationState()
	state.Stage = StageShowingSolution
	state.History = []*schema.Message{schema.UserMessage("hello")}
	state.RoundCounter = 4
	state.Forced = true
	state.Solution = &Solution{PrimaryTool: "RPA"}
	state.Attachments["f.csv"] = Attachment{}
	state.Generation = 2
	state.UploaderKey = 2
	state.UserID = "uid"
	state.UserEmail = "ada@example.com"
	state.FirstQuestion = "old question"

	next := state.Reset()

	assert.Equal(t, StageInitialInput, next.Stage)
	assert.Empty(t, next.History)
	assert.Zero(t, next.RoundCounter)
	assert.False(t, next.Forced)
	assert.Nil(t, next.Solution)
	assert.Empty(t, next.Attachments)
	assert.Empty(t, next.FirstQuestion)

	assert.Equal(t, 3, next.Generation)
	assert.Equal(t, 3, next.UploaderKey)
	assert.Equal(t, "uid", next.UserID)
	assert.Equal(t, "ada@example.com", next.UserEmail)
}

func TestNilSolutionClone(t *testing.T) {
	var s *Solution
	require.Nil(t, s.Clone())
}
