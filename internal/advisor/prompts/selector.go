package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/dx-advisor/server/internal/advisor/catalog"
	"github.com/dx-advisor/server/internal/advisor/model"
)

//go:embed template/unified_prompt.txt
var unifiedSystemPrompt string

//go:embed template/decision_prompt.txt
var decisionSystemPrompt string

//go:embed template/question_prompt.txt
var questionSystemPrompt string

//go:embed template/solution_prompt.txt
var solutionSystemPrompt string

// Kind keys the three distinct system prompts of multi-prompt mode.
type Kind string

const (
	KindDecision Kind = "decision"
	KindQuestion Kind = "question"
	KindSolution Kind = "solution"
)

// StaticTools is the plain tool-name list bundled with the templates,
// used when catalog descriptions are disabled.
var StaticTools = []string{
	"BI dashboard",
	"RPA",
	"OCR",
	"chatbot",
	"predictive model",
	"recommendation engine",
	"workflow automation",
	"data warehouse",
	"document search",
	"anomaly detection",
}

// Selector chooses and renders the system prompt for the next model call.
type Selector struct {
	catalog   catalog.Fetcher
	cfg       model.PromptConfig
	maxRounds int
}

func NewSelector(cat catalog.Fetcher, cfg model.PromptConfig, maxRounds int) *Selector {
	return &Selector{catalog: cat, cfg: cfg, maxRounds: maxRounds}
}

// MultiPrompt reports whether the three-prompt flow is active.
func (s *Selector) MultiPrompt() bool {
	return s.cfg.UseMultipleSystemPrompts
}

// System renders the system prompt for the given kind and round. In
// unified mode the kind is ignored and the single prompt carries the
// current round so the model self-regulates its question count. A failed
// catalog fetch propagates; a recommendation is never built on an empty
// catalog.
func (s *Selector) System(ctx context.Context, kind Kind, round int) (string, error) {
	tools, err := s.toolCatalog(ctx)
	if err != nil {
		return "", err
	}

	template := unifiedSystemPrompt
	if s.cfg.UseMultipleSystemPrompts {
		switch kind {
		case KindDecision:
			template = decisionSystemPrompt
		case KindQuestion:
			template = questionSystemPrompt
		case KindSolution:
			template = solutionSystemPrompt
		default:
			return "", fmt.Errorf("unknown prompt kind %q", kind)
		}
	}

	// Render known tokens only so JSON braces in the template survive.
	content := strings.NewReplacer(
		"{tool_catalog}", tools,
		"{current_question_round}", strconv.Itoa(round),
		"{max_question_rounds}", strconv.Itoa(s.maxRounds),
	).Replace(template)

	// Wrap via the eino prompt component using a messages placeholder so
	// prompt callbacks fire.
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("system prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("system prompt render: empty result")
	}
	return msgs[0].Content, nil
}

func (s *Selector) toolCatalog(ctx context.Context) (string, error) {
	if !s.cfg.UseToolDescriptions {
		return strings.Join(StaticTools, ", "), nil
	}

	entries, err := s.catalog.Fetch(ctx)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.Name+": "+e.Description)
	}
	return strings.Join(lines, "\n"), nil
}
