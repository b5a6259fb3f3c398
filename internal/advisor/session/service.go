// Package session owns the conversation state bundle: loading, seeding,
// saving and resetting it as one atomic unit per session key. Sessions
// are isolated by key; no state is shared between them.
package session

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dx-advisor/server/internal/advisor/machine"
	"github.com/dx-advisor/server/internal/advisor/model"
	"github.com/dx-advisor/server/internal/advisor/telemetry"
	errx "github.com/dx-advisor/server/internal/core/error"
	logx "github.com/dx-advisor/server/pkg/logger"
)

type Service struct {
	repo      model.SessionRepository
	machine   *machine.Machine
	telemetry *telemetry.Submitter
}

func NewService(repo model.SessionRepository, m *machine.Machine, t *telemetry.Submitter) *Service {
	return &Service{repo: repo, machine: m, telemetry: t}
}

// Init loads or seeds the session state. It is idempotent: existing
// state is left untouched except for the identity fields, which are
// derived from the email header exactly once and preserved thereafter.
func (s *Service) Init(ctx context.Context, sessionID, email string) (model.ConversationState, error) {
	state, ok, err := s.repo.Load(ctx, sessionID)
	if err != nil {
		return model.ConversationState{}, err
	}
	if !ok {
		state = model.NewConversationState()
	}

	if state.UserID == "" && email != "" {
		state.UserEmail = email
		state.UserID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(email)).String()
		logx.Info().Str("user_id", state.UserID).Msg("session identity initialised")
	}

	if err := s.repo.Save(ctx, sessionID, state); err != nil {
		return model.ConversationState{}, err
	}
	return state, nil
}

// Reset atomically replaces the whole state with a fresh default,
// bumping the generation so any in-flight model result is discarded and
// rekeying the upload widget so a stale file is not resubmitted.
func (s *Service) Reset(ctx context.Context, sessionID string) (model.ConversationState, error) {
	state, _, err := s.repo.Load(ctx, sessionID)
	if err != nil {
		return model.ConversationState{}, err
	}
	next := state.Reset()
	if err := s.repo.Save(ctx, sessionID, next); err != nil {
		return model.ConversationState{}, err
	}
	logx.Info().Str("sessionID", sessionID).Int("generation", next.Generation).Msg("session reset")
	return next, nil
}

// Submit records the user's first request and moves the conversation
// into processing. Validation failures leave the stored state untouched.
func (s *Service) Submit(ctx context.Context, sessionID, request string) (model.ConversationState, error) {
	return s.step(ctx, sessionID, func(state model.ConversationState) (model.ConversationState, error) {
		return s.machine.SubmitRequest(state, request)
	})
}

// Answer records the user's answers to the pending questions.
func (s *Service) Answer(ctx context.Context, sessionID string, answers map[string]string) (model.ConversationState, error) {
	return s.step(ctx, sessionID, func(state model.ConversationState) (model.ConversationState, error) {
		return s.machine.SubmitAnswers(state, answers)
	})
}

// Advance runs one model round. The state loaded before the call pins
// the generation; if a reset lands while the model call is outstanding
// the late result is discarded instead of resurrecting stale state.
func (s *Service) Advance(ctx context.Context, sessionID string) (model.ConversationState, error) {
	state, ok, err := s.repo.Load(ctx, sessionID)
	if err != nil {
		return model.ConversationState{}, err
	}
	if !ok {
		return model.ConversationState{}, errx.Validation("no active session")
	}
	generation := state.Generation

	next, stepErr := s.machine.Advance(ctx, state)
	if stepErr != nil && errx.IsValidation(stepErr) {
		return state, stepErr
	}

	saved, err := s.repo.SaveIfGeneration(ctx, sessionID, next, generation)
	if err != nil {
		return model.ConversationState{}, err
	}
	if !saved {
		// The session was reset mid-call; report the fresh state.
		fresh, _, loadErr := s.repo.Load(ctx, sessionID)
		if loadErr != nil {
			return model.ConversationState{}, loadErr
		}
		return fresh, nil
	}

	if stepErr == nil && next.Stage == model.StageShowingSolution {
		s.submitTelemetry(next)
	}
	return next, stepErr
}

// AddAttachment records one processed upload; a re-upload of the same
// filename wins over the previous one.
func (s *Service) AddAttachment(ctx context.Context, sessionID, filename string, att model.Attachment) (model.ConversationState, error) {
	return s.step(ctx, sessionID, func(state model.ConversationState) (model.ConversationState, error) {
		next := state.Clone()
		next.Attachments[filename] = att
		return next, nil
	})
}

// RemoveAttachment drops one upload from the session.
func (s *Service) RemoveAttachment(ctx context.Context, sessionID, filename string) (model.ConversationState, error) {
	return s.step(ctx, sessionID, func(state model.ConversationState) (model.ConversationState, error) {
		next := state.Clone()
		delete(next.Attachments, filename)
		return next, nil
	})
}

// step loads, applies and saves one transition. A validation error skips
// the save; the machine guarantees the returned state equals the input
// then.
func (s *Service) step(ctx context.Context, sessionID string, apply func(model.ConversationState) (model.ConversationState, error)) (model.ConversationState, error) {
	state, ok, err := s.repo.Load(ctx, sessionID)
	if err != nil {
		return model.ConversationState{}, err
	}
	if !ok {
		state = model.NewConversationState()
	}

	next, stepErr := apply(state)
	if stepErr != nil && errx.IsValidation(stepErr) {
		return state, stepErr
	}
	if err := s.repo.Save(ctx, sessionID, next); err != nil {
		return model.ConversationState{}, err
	}
	return next, stepErr
}

func (s *Service) submitTelemetry(state model.ConversationState) {
	if !s.telemetry.Enabled() {
		return
	}
	filenames := make([]string, 0, len(state.Attachments))
	for name := range state.Attachments {
		filenames = append(filenames, name)
	}
	sort.Strings(filenames)

	start := ""
	if !state.StartedAt.IsZero() {
		start = state.StartedAt.Format("2006-01-02 15:04:05")
	}
	s.telemetry.SubmitAsync(uuid.NewString(), telemetry.Payload{
		UserEmail:      state.UserEmail,
		FirstQuestion:  state.FirstQuestion,
		Filenames:      filenames,
		StartTimestamp: start,
		EndTimestamp:   time.Now().UTC().Format("2006-01-02 15:04:05"),
	})
}
