// Package machine implements the conversation state machine: stage
// transitions, the chat-history append protocol and answer gating. Every
// operation takes a ConversationState value and returns the next one; on
// error the input is returned with at most a stage collapse, never a torn
// state.
package machine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/dx-advisor/server/internal/advisor/llm"
	"github.com/dx-advisor/server/internal/advisor/model"
	"github.com/dx-advisor/server/internal/advisor/parsers"
	"github.com/dx-advisor/server/internal/advisor/prompts"
	"github.com/dx-advisor/server/internal/advisor/rounds"
	errx "github.com/dx-advisor/server/internal/core/error"
	logx "github.com/dx-advisor/server/pkg/logger"
)

// questionPrefix marks question entries in the transcript, mirroring
// the assistant message per question the flow appends.
const questionPrefix = "Question: "

// validTransitions defines the conversation state machine transition
// rules. Operations consult it before applying any side effect.
var validTransitions = map[model.Stage][]model.Stage{
	model.StageInitialInput: {
		model.StageInitialInput, // empty request rejected in place
		model.StageProcessing,
	},
	model.StageProcessing: {
		model.StageAwaitingAnswers,
		model.StageShowingSolution,
		model.StageInitialInput, // model or format error collapses the round
	},
	model.StageAwaitingAnswers: {
		model.StageAwaitingAnswers, // incomplete answers rejected in place
		model.StageProcessing,
	},
	model.StageShowingSolution: {
		model.StageInitialInput, // restart only
	},
	model.StageError: {
		model.StageInitialInput,
	},
}

// IsValidTransition checks if a stage transition is allowed.
func IsValidTransition(from, to model.Stage) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidNextStages returns the allowed next stages for a given stage.
func ValidNextStages(from model.Stage) []model.Stage {
	return validTransitions[from]
}

type Machine struct {
	selector *prompts.Selector
	invoker  llm.Invoker
	policy   rounds.Policy
}

func New(selector *prompts.Selector, invoker llm.Invoker, policy rounds.Policy) *Machine {
	return &Machine{selector: selector, invoker: invoker, policy: policy}
}

// SubmitRequest seeds a new conversation from the user's first request.
// Attachment summaries are folded into the stored user message. An empty
// request is rejected in place with a validation error.
func (m *Machine) SubmitRequest(state model.ConversationState, request string) (model.ConversationState, error) {
	if state.Stage != model.StageInitialInput {
		return state, errx.Validation(fmt.Sprintf("cannot submit a new request while %s", state.Stage))
	}
	request = strings.TrimSpace(request)
	if request == "" {
		return state, errx.Validation("please describe what you want to achieve")
	}

	next := state.Clone()
	next.History = append(next.History, schema.UserMessage(request+attachmentContext(state.Attachments)))
	next.Stage = model.StageProcessing
	next.RoundCounter = 1 // the initial question counts as the first round
	next.FirstQuestion = request
	next.StartedAt = time.Now().UTC()
	logx.Info().Int("round", next.RoundCounter).Msg("conversation started")
	return next, nil
}

// Advance runs one model round from PROCESSING_INITIAL: select the
// stage-appropriate system prompt, invoke the model, normalize the
// response, let the round policy override it, then apply the transition.
//
// On a model, format or catalog failure the returned state is collapsed
// back to INITIAL_INPUT with the round counter untouched (a failed
// attempt consumes no budget) and the error is returned for rendering.
func (m *Machine) Advance(ctx context.Context, state model.ConversationState) (model.ConversationState, error) {
	if state.Stage != model.StageProcessing {
		return state, errx.Validation(fmt.Sprintf("no model round due while %s", state.Stage))
	}

	outcome, decisionMsg, err := m.classify(ctx, state)
	if err != nil {
		next := state.Clone()
		next.Stage = model.StageInitialInput
		next.PendingQuestions = nil
		return next, err
	}

	outcome = m.policy.Enforce(state.RoundCounter, outcome)
	return m.apply(state, outcome, decisionMsg)
}

// SubmitAnswers validates and records the user's answers to the pending
// questions. Any blank answer leaves the state untouched and reports
// every missing question; a complete set appends one user message per
// answer and consumes one round.
func (m *Machine) SubmitAnswers(state model.ConversationState, answers map[string]string) (model.ConversationState, error) {
	if state.Stage != model.StageAwaitingAnswers {
		return state, errx.Validation(fmt.Sprintf("no answers expected while %s", state.Stage))
	}

	var missing []string
	for _, q := range state.PendingQuestions {
		if strings.TrimSpace(answers[q]) == "" {
			missing = append(missing, q)
		}
	}
	if len(missing) > 0 {
		return state, errx.Validation("please answer: " + strings.Join(missing, "; "))
	}

	next := state.Clone()
	for _, q := range state.PendingQuestions {
		next.History = append(next.History, schema.UserMessage(fmt.Sprintf("(answer to %q) %s", q, strings.TrimSpace(answers[q]))))
		next.Answers[q] = strings.TrimSpace(answers[q])
	}
	next.PendingQuestions = nil
	next.RoundCounter++
	next.Stage = model.StageProcessing
	logx.Info().Int("round", next.RoundCounter).Msg("answers accepted")
	return next, nil
}

// classify obtains one normalized outcome. In multi-prompt mode a
// decision call routes to the question or solution prompt first; an
// exhausted budget skips straight to the solution prompt so the system
// can never loop past the cap.
func (m *Machine) classify(ctx context.Context, state model.ConversationState) (model.Outcome, string, error) {
	round := state.RoundCounter

	if !m.selector.MultiPrompt() {
		outcome, err := m.call(ctx, state, prompts.KindDecision, round)
		return outcome, "", err
	}

	kind := prompts.KindSolution
	decisionMsg := ""
	if !m.policy.Exhausted(round) {
		system, err := m.selector.System(ctx, prompts.KindDecision, round)
		if err != nil {
			return model.Outcome{}, "", err
		}
		raw, err := m.invoker.Invoke(ctx, state.History, system)
		if err != nil {
			return model.Outcome{}, "", wrapInvokeErr(err)
		}
		route, msg, ok := parsers.ClassifyRoute(raw)
		if !ok {
			return model.Outcome{}, "", errx.ResponseFormat(fmt.Errorf("unusable decision response"))
		}
		decisionMsg = msg
		if route == model.RouteQuestions {
			kind = prompts.KindQuestion
		}
	}

	outcome, err := m.call(ctx, state, kind, round)
	return outcome, decisionMsg, err
}

func (m *Machine) call(ctx context.Context, state model.ConversationState, kind prompts.Kind, round int) (model.Outcome, error) {
	system, err := m.selector.System(ctx, kind, round)
	if err != nil {
		return model.Outcome{}, err
	}
	raw, err := m.invoker.Invoke(ctx, state.History, system)
	if err != nil {
		return model.Outcome{}, wrapInvokeErr(err)
	}
	outcome := parsers.ParseOutcome(raw)
	if outcome.Kind == model.OutcomeFailure {
		return model.Outcome{}, errx.ResponseFormat(fmt.Errorf("%s", outcome.Reason))
	}
	return outcome, nil
}

// apply commits one classified outcome: the stage change and the history
// appends land together on a clone, so a caller observing an error sees
// the input state unchanged.
func (m *Machine) apply(state model.ConversationState, outcome model.Outcome, decisionMsg string) (model.ConversationState, error) {
	next := state.Clone()
	next.Answers = map[string]string{} // answers are per round
	if decisionMsg != "" {
		next.History = append(next.History, schema.AssistantMessage(decisionMsg, nil))
	}

	switch outcome.Kind {
	case model.OutcomeQuestions:
		next.History = append(next.History, schema.AssistantMessage(outcome.Message, nil))
		for _, q := range outcome.Questions {
			next.History = append(next.History, schema.AssistantMessage(questionPrefix+q, nil))
		}
		next.PendingQuestions = append([]string(nil), outcome.Questions...)
		next.Stage = model.StageAwaitingAnswers

	case model.OutcomeSolution:
		next.History = append(next.History, schema.AssistantMessage(outcome.Message, nil))
		next.PendingQuestions = nil
		next.Solution = outcome.Solution.Clone()
		next.Forced = outcome.Forced
		next.Stage = model.StageShowingSolution

	default:
		return state, errx.ResponseFormat(fmt.Errorf("unexpected outcome kind %q", outcome.Kind))
	}

	if !IsValidTransition(state.Stage, next.Stage) {
		return state, errx.New(fmt.Errorf("transition %s -> %s not allowed", state.Stage, next.Stage), 500, errx.SystemErrorMessage)
	}
	return next, nil
}

func attachmentContext(attachments map[string]model.Attachment) string {
	if len(attachments) == 0 {
		return ""
	}
	names := make([]string, 0, len(attachments))
	for name := range attachments {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("\n\nUploaded file context:\n")
	for _, name := range names {
		b.WriteString("- " + name + ": " + attachments[name].Summary + "\n")
	}
	return b.String()
}

// wrapInvokeErr keeps an already classified error as is and wraps plain
// transport failures as model communication errors.
func wrapInvokeErr(err error) error {
	if errx.KindOf(err) != errx.KindInternal {
		return err
	}
	return errx.Model(err)
}
