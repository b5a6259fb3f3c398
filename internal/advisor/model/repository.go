package model

import (
	"context"
)

// SessionRepository persists one ConversationState document per session.
type SessionRepository interface {
	// Load retrieves the state for a session; a session that was never
	// saved yields (zero state, false, nil).
	Load(ctx context.Context, sessionID string) (ConversationState, bool, error)

	// Save stores the state unconditionally.
	Save(ctx context.Context, sessionID string, state ConversationState) error

	// SaveIfGeneration stores the state only while the persisted
	// generation still equals expected, reporting whether it did. A reset
	// that raced the caller bumps the generation and the save is dropped.
	SaveIfGeneration(ctx context.Context, sessionID string, state ConversationState, expected int) (bool, error)

	// Delete removes the session document.
	Delete(ctx context.Context, sessionID string) error
}
