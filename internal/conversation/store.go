// internal/conversation/store.go

package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"spendquery/internal/common/cache"
	"spendquery/internal/common/logger"
)

// maxStoredTurns bounds the per-conversation history so a long-running
// conversation cannot grow a key without bound.
const maxStoredTurns = 20

// Store persists conversation histories in Redis, one key per conversation,
// JSON-encoded with a sliding TTL.
type Store struct {
	redis  *cache.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

// NewStore creates a conversation store. A nil redis client yields a store
// whose reads return empty contexts and whose writes are dropped, so the
// engine works unchanged when Redis is disabled.
func NewStore(redisClient *cache.RedisClient, ttl time.Duration, log logger.Logger) *Store {
	return &Store{redis: redisClient, ttl: ttl, logger: log}
}

// Turns loads the history for a conversation. A missing key is an empty
// context, not an error.
func (s *Store) Turns(ctx context.Context, conversationID string) (*Context, error) {
	empty := &Context{ConversationID: conversationID}
	if s.redis == nil || conversationID == "" {
		return empty, nil
	}

	raw, err := s.redis.Get(ctx, s.key(conversationID))
	if err == redis.Nil {
		return empty, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading conversation %s: %w", conversationID, err)
	}

	var c Context
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		// A corrupt value is unrecoverable; start the conversation over.
		s.logger.Warn("discarding corrupt conversation history", map[string]interface{}{
			"conversation_id": conversationID,
			"error":           err.Error(),
		})
		return empty, nil
	}
	c.ConversationID = conversationID
	return &c, nil
}

// AppendTurn appends one turn and rewrites the key with a refreshed TTL.
func (s *Store) AppendTurn(ctx context.Context, conversationID string, turn Turn) error {
	if s.redis == nil || conversationID == "" {
		return nil
	}

	c, err := s.Turns(ctx, conversationID)
	if err != nil {
		return err
	}

	c.Turns = append(c.Turns, turn)
	if len(c.Turns) > maxStoredTurns {
		c.Turns = c.Turns[len(c.Turns)-maxStoredTurns:]
	}

	encoded, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding conversation %s: %w", conversationID, err)
	}
	if err := s.redis.Set(ctx, s.key(conversationID), string(encoded), s.ttl); err != nil {
		return fmt.Errorf("storing conversation %s: %w", conversationID, err)
	}
	return nil
}

func (s *Store) key(conversationID string) string {
	return "conversation:" + conversationID
}
