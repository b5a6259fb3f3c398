package session

import (
	"context"
	"sync"

	"github.com/dx-advisor/server/internal/advisor/model"
)

// MemorySessionRepository keeps session state in process memory. Used for
// local runs without Redis and in tests.
type MemorySessionRepository struct {
	mu     sync.Mutex
	states map[string]model.ConversationState
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{states: map[string]model.ConversationState{}}
}

func (r *MemorySessionRepository) Load(_ context.Context, sessionID string) (model.ConversationState, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[sessionID]
	if !ok {
		return model.ConversationState{}, false, nil
	}
	return state.Clone(), true, nil
}

func (r *MemorySessionRepository) Save(_ context.Context, sessionID string, state model.ConversationState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[sessionID] = state.Clone()
	return nil
}

func (r *MemorySessionRepository) SaveIfGeneration(_ context.Context, sessionID string, state model.ConversationState, expected int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.states[sessionID]; ok && current.Generation != expected {
		return false, nil
	}
	r.states[sessionID] = state.Clone()
	return true, nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, sessionID)
	return nil
}

var _ model.SessionRepository = (*MemorySessionRepository)(nil)
