package prompts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dx-advisor/server/internal/advisor/catalog"
	"github.com/dx-advisor/server/internal/advisor/model"
)

type stubFetcher struct {
	entries []catalog.Entry
	err     error
}

func (f stubFetcher) Fetch(context.Context) ([]catalog.Entry, error) {
	return f.entries, f.err
}

func TestSystemUnifiedInterpolatesRound(t *testing.T) {
	s := NewSelector(nil, model.PromptConfig{}, 5)

	out, err := s.System(context.Background(), KindDecision, 3)
	require.NoError(t, err)

	assert.Contains(t, out, "clarification round 3 of at most")
	assert.Contains(t, out, "5.")
	assert.NotContains(t, out, "{current_question_round}")
	assert.NotContains(t, out, "{max_question_rounds}")
	assert.NotContains(t, out, "{tool_catalog}")
}

func TestSystemUnifiedIgnoresKind(t *testing.T) {
	s := NewSelector(nil, model.PromptConfig{}, 5)
	ctx := context.Background()

	decision, err := s.System(ctx, KindDecision, 1)
	require.NoError(t, err)
	question, err := s.System(ctx, KindQuestion, 1)
	require.NoError(t, err)
	assert.Equal(t, decision, question)
}

func TestSystemMultiPromptRendersDistinctTemplates(t *testing.T) {
	s := NewSelector(nil, model.PromptConfig{UseMultipleSystemPrompts: true}, 5)
	ctx := context.Background()

	rendered := map[Kind]string{}
	for _, kind := range []Kind{KindDecision, KindQuestion, KindSolution} {
		out, err := s.System(ctx, kind, 2)
		require.NoError(t, err)
		rendered[kind] = out
	}

	assert.NotEqual(t, rendered[KindDecision], rendered[KindQuestion])
	assert.NotEqual(t, rendered[KindQuestion], rendered[KindSolution])
	assert.Contains(t, rendered[KindDecision], "triaging")
	assert.Contains(t, rendered[KindQuestion], "clarifying questions")
	assert.Contains(t, rendered[KindSolution], "final recommendation")
}

func TestSystemMultiPromptRejectsUnknownKind(t *testing.T) {
	s := NewSelector(nil, model.PromptConfig{UseMultipleSystemPrompts: true}, 5)

	_, err := s.System(context.Background(), Kind("bogus"), 1)
	require.Error(t, err)
}

func TestSystemStaticToolsWithoutDescriptions(t *testing.T) {
	s := NewSelector(nil, model.PromptConfig{UseToolDescriptions: false}, 5)

	out, err := s.System(context.Background(), KindDecision, 1)
	require.NoError(t, err)
	assert.Contains(t, out, strings.Join(StaticTools, ", "))
}

func TestSystemCatalogDescriptionsWhenEnabled(t *testing.T) {
	s := NewSelector(stubFetcher{entries: []catalog.Entry{
		{Name: "chatbot", Description: "conversational customer support"},
		{Name: "OCR", Description: "digitise paper documents"},
	}}, model.PromptConfig{UseToolDescriptions: true}, 5)

	out, err := s.System(context.Background(), KindDecision, 1)
	require.NoError(t, err)
	assert.Contains(t, out, "chatbot: conversational customer support")
	assert.Contains(t, out, "OCR: digitise paper documents")
}

func TestSystemCatalogFailurePropagates(t *testing.T) {
	s := NewSelector(stubFetcher{err: errors.New("redis down")}, model.PromptConfig{UseToolDescriptions: true}, 5)

	_, err := s.System(context.Background(), KindDecision, 1)
	require.Error(t, err)
}
