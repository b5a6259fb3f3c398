package model

import (
	"time"

	"github.com/cloudwego/eino/schema"
)

// Attachment is one processed upload: a human-readable summary plus the
// raw extracted text. The extract package produces these; the state
// machine only folds summaries into the first request.
type Attachment struct {
	Summary     string `json:"summary"`
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
}

// ConversationState is the whole per-session conversation bundle. It is
// owned by the session service and mutated only through state machine
// operations, which take a value and return the next one so a failed
// operation can never leave a torn state behind.
type ConversationState struct {
	Stage            Stage                 `json:"stage"`
	History          []*schema.Message     `json:"chat_history"`
	PendingQuestions []string              `json:"pending_questions"`
	Answers          map[string]string     `json:"user_answers"`
	RoundCounter     int                   `json:"round_counter"`
	Solution         *Solution             `json:"solution,omitempty"`
	Attachments      map[string]Attachment `json:"attachments"`

	// Forced is set when the round policy overrode a questions
	// classification; a forced solution is terminal.
	Forced bool `json:"forced"`

	// Generation increments on every reset. A model result computed under
	// an older generation is discarded instead of resurrecting stale state.
	Generation int `json:"generation"`

	// UploaderKey rekeys the UI upload widget on reset so a stale file is
	// not silently resubmitted.
	UploaderKey int `json:"uploader_key"`

	// Identity and telemetry fields, populated once by session init and
	// preserved across resets.
	UserID        string    `json:"user_id,omitempty"`
	UserEmail     string    `json:"user_email,omitempty"`
	FirstQuestion string    `json:"first_question,omitempty"`
	StartedAt     time.Time `json:"started_at,omitempty"`
}

// NewConversationState returns the default empty state.
func NewConversationState() ConversationState {
	return ConversationState{
		Stage:       StageInitialInput,
		History:     []*schema.Message{},
		Answers:     map[string]string{},
		Attachments: map[string]Attachment{},
	}
}

// Clone returns a deep copy. State machine operations mutate a clone and
// return it, keeping every transition all-or-nothing.
func (s ConversationState) Clone() ConversationState {
	out := s
	out.History = make([]*schema.Message, len(s.History))
	copy(out.History, s.History)
	out.PendingQuestions = append([]string(nil), s.PendingQuestions...)
	out.Answers = make(map[string]string, len(s.Answers))
	for k, v := range s.Answers {
		out.Answers[k] = v
	}
	out.Attachments = make(map[string]Attachment, len(s.Attachments))
	for k, v := range s.Attachments {
		out.Attachments[k] = v
	}
	out.Solution = s.Solution.Clone()
	return out
}

// Reset returns the default state while carrying over identity fields and
// advancing the generation and uploader keys.
func (s ConversationState) Reset() ConversationState {
	out := NewConversationState()
	out.Generation = s.Generation + 1
	out.UploaderKey = s.UploaderKey + 1
	out.UserID = s.UserID
	out.UserEmail = s.UserEmail
	return out
}
