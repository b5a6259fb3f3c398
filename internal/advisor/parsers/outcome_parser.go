package parsers

import (
	"encoding/json"
	"strings"

	"github.com/dx-advisor/server/internal/advisor/model"
	logx "github.com/dx-advisor/server/pkg/logger"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 128 * 1024 // 128KB
	maxQuestions  = 50
	maxErrSnippet = 200
)

const (
	reasonMalformed      = "malformed response"
	reasonMissingFields  = "missing required fields"
	reasonUnexpectedType = "unexpected response type"
	reasonEmptyQuestions = "questions response without questions"
	reasonNoTools        = "solution response without tools"
	reasonNoTodos        = "solution response without todos"
)

// legacyPurpose labels the synthesized combination entry when a response
// carries only the old singular tool shape.
const legacyPurpose = "primary solution"

// rawResponse mirrors the model's JSON payload. Nil slices distinguish an
// absent field from a present-but-empty one, which matters for the
// fail-closed checks below.
type rawResponse struct {
	Type             string                  `json:"type"`
	Message          string                  `json:"message"`
	Questions        []string                `json:"questions"`
	Tool             string                  `json:"tool"`
	Tools            []string                `json:"tools"`
	PrimaryTool      string                  `json:"primary_tool"`
	ToolCombinations []model.ToolCombination `json:"tool_combinations"`
	Todos            []string                `json:"todos"`
}

// ParseOutcome classifies and canonicalizes one raw model response. It is
// a pure function: appending to history is the caller's job. Validation
// fails closed; any violation yields a failure outcome, never a partial
// solution.
func ParseOutcome(content string) model.Outcome {
	raw, reason := decode(content)
	if reason != "" {
		return model.Failure(reason)
	}
	if raw.Message == "" {
		logFailure(content, reasonMissingFields)
		return model.Failure(reasonMissingFields)
	}

	switch raw.Type {
	case "questions":
		return parseQuestions(raw, content)
	case "solution":
		return parseSolution(raw, content)
	case "":
		logFailure(content, reasonMissingFields)
		return model.Failure(reasonMissingFields)
	default:
		logFailure(content, reasonUnexpectedType)
		return model.Failure(reasonUnexpectedType)
	}
}

// ClassifyRoute interprets a decision-phase response. Only the
// discriminator and message are required; the "decision" tag routes
// prompt selection and never escapes as a terminal classification.
func ClassifyRoute(content string) (model.Route, string, bool) {
	raw, reason := decode(content)
	if reason != "" || raw.Message == "" {
		return "", "", false
	}
	switch raw.Type {
	case "questions":
		return model.RouteQuestions, raw.Message, true
	case "solution":
		return model.RouteSolution, raw.Message, true
	}
	logFailure(content, reasonUnexpectedType)
	return "", "", false
}

func decode(content string) (*rawResponse, string) {
	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "outcome_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = content[:maxContentLen]
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, reasonMalformed
	}

	var raw rawResponse
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		logx.Error().
			Str("component", "outcome_parser").
			Err(err).
			Str("payload", safeSnippet(content)).
			Msg("failed to decode model response")
		return nil, reasonMalformed
	}
	return &raw, ""
}

func parseQuestions(raw *rawResponse, content string) model.Outcome {
	questions := make([]string, 0, len(raw.Questions))
	for _, q := range raw.Questions {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		questions = append(questions, q)
		if len(questions) >= maxQuestions {
			logx.Warn().
				Str("component", "outcome_parser").
				Int("max_questions", maxQuestions).
				Msg("question list capped")
			break
		}
	}
	if len(questions) == 0 {
		logFailure(content, reasonEmptyQuestions)
		return model.Failure(reasonEmptyQuestions)
	}
	return model.Outcome{
		Kind:      model.OutcomeQuestions,
		Message:   raw.Message,
		Questions: questions,
		Hints:     hintsOf(raw),
	}
}

func parseSolution(raw *rawResponse, content string) model.Outcome {
	tools := raw.Tools
	primary := raw.PrimaryTool
	combos := raw.ToolCombinations

	// Legacy singular tool shape is promoted to the canonical one here;
	// nothing past this boundary ever sees it.
	if len(tools) == 0 {
		if raw.Tool == "" {
			logFailure(content, reasonNoTools)
			return model.Failure(reasonNoTools)
		}
		tools = []string{raw.Tool}
		primary = raw.Tool
		if len(combos) == 0 {
			combos = []model.ToolCombination{{
				Tool:    raw.Tool,
				Purpose: legacyPurpose,
				Todos:   append([]string(nil), raw.Todos...),
			}}
		}
	}
	if raw.Todos == nil {
		logFailure(content, reasonNoTodos)
		return model.Failure(reasonNoTodos)
	}

	if primary == "" || !contains(tools, primary) {
		primary = tools[0]
	}
	if len(combos) == 0 {
		combos = []model.ToolCombination{{
			Tool:    primary,
			Purpose: legacyPurpose,
			Todos:   append([]string(nil), raw.Todos...),
		}}
	}

	return model.Outcome{
		Kind:    model.OutcomeSolution,
		Message: raw.Message,
		Solution: &model.Solution{
			Message:          raw.Message,
			Tools:            tools,
			PrimaryTool:      primary,
			ToolCombinations: combos,
			Todos:            raw.Todos,
		},
		Hints: hintsOf(raw),
	}
}

func hintsOf(raw *rawResponse) model.SolutionHints {
	h := model.SolutionHints{
		Tools:            raw.Tools,
		PrimaryTool:      raw.PrimaryTool,
		ToolCombinations: raw.ToolCombinations,
		Todos:            raw.Todos,
	}
	if len(h.Tools) == 0 && raw.Tool != "" {
		h.Tools = []string{raw.Tool}
	}
	return h
}

// --- helpers ---

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}

func logFailure(content, reason string) {
	logx.Error().
		Str("component", "outcome_parser").
		Str("reason", reason).
		Str("payload", safeSnippet(content)).
		Msg("model response rejected")
}
