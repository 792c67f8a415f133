package chatinfra

import (
	"context"
	"time"

	"github.com/adi-uchiha/jems/chat"
	"github.com/adi-uchiha/jems/pkg/kernel"
	"github.com/redis/go-redis/v9"
)

// RedisTurnState keeps a TTL-bounded per-conversation activity marker in
// Redis. The TTL is the crash safety net: a turn that dies without clearing
// its marker stops reporting as active once the key expires.
type RedisTurnState struct {
	client *redis.Client
}

func NewRedisTurnState(client *redis.Client) chat.TurnStateStore {
	return &RedisTurnState{client: client}
}

func turnKey(id kernel.ConversationID) string {
	return "chat:turn:" + id.String()
}

func (s *RedisTurnState) MarkActive(ctx context.Context, id kernel.ConversationID, ttl time.Duration) error {
	return s.client.Set(ctx, turnKey(id), "1", ttl).Err()
}

func (s *RedisTurnState) Clear(ctx context.Context, id kernel.ConversationID) error {
	return s.client.Del(ctx, turnKey(id)).Err()
}

func (s *RedisTurnState) IsActive(ctx context.Context, id kernel.ConversationID) (bool, error) {
	n, err := s.client.Exists(ctx, turnKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
