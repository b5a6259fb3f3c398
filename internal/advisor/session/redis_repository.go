package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dx-advisor/server/internal/advisor/model"
	errx "github.com/dx-advisor/server/internal/core/error"
	logx "github.com/dx-advisor/server/pkg/logger"
)

// RedisSessionRepository stores one JSON state document per session key
// with a TTL extended on every touch.
type RedisSessionRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisSessionRepository(rdb redis.Cmdable, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisSessionRepository) sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s:state", sessionID)
}

func (r *RedisSessionRepository) Load(ctx context.Context, sessionID string) (model.ConversationState, bool, error) {
	key := r.sessionKey(sessionID)
	raw, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.ConversationState{}, false, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session state from redis")
		return model.ConversationState{}, false, errx.WrapRedis(err)
	}

	var state model.ConversationState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to unmarshal session state")
		return model.ConversationState{}, false, fmt.Errorf("unmarshal session state: %w", err)
	}
	state.Stage = model.ParseStage(state.Stage.String())
	return state, true, nil
}

func (r *RedisSessionRepository) Save(ctx context.Context, sessionID string, state model.ConversationState) error {
	b, err := json.Marshal(state)
	if err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to marshal session state")
		return fmt.Errorf("marshal session state: %w", err)
	}
	key := r.sessionKey(sessionID)
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save session state to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

// SaveIfGeneration drops the save when the stored generation moved on
// (a reset raced the in-flight round). The load-compare-set is not a
// transaction; one logical conversation is processed sequentially per
// session, so the only writer that can interleave is a reset, and a
// discarded save is exactly the wanted outcome then.
func (r *RedisSessionRepository) SaveIfGeneration(ctx context.Context, sessionID string, state model.ConversationState, expected int) (bool, error) {
	current, ok, err := r.Load(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if ok && current.Generation != expected {
		logx.Warn().
			Str("sessionID", sessionID).
			Int("expected_generation", expected).
			Int("stored_generation", current.Generation).
			Msg("discarding stale session state")
		return false, nil
	}
	if err := r.Save(ctx, sessionID, state); err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, sessionID string) error {
	key := r.sessionKey(sessionID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete session state from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.SessionRepository = (*RedisSessionRepository)(nil)
