package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"surveychat/internal/model"
)

// ConversationState is the hot session state kept per live conversation so a
// reconnecting client lands back in the right survey session and mode.
type ConversationState struct {
	ConversationID string     `json:"conversationId"`
	ParticipantID  string     `json:"participantId"`
	SessionID      string     `json:"sessionId,omitempty"`
	Mode           model.Mode `json:"mode"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// ConversationCache handles Redis operations for conversation session state
type ConversationCache interface {
	Set(ctx context.Context, state *ConversationState) error
	Get(ctx context.Context, conversationID string) (*ConversationState, error)
	Delete(ctx context.Context, conversationID string) error
}

type conversationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewConversationCache creates a new conversation cache
func NewConversationCache(client *redis.Client) ConversationCache {
	return &conversationCache{
		client: client,
		ttl:    24 * time.Hour, // idle conversations expire after 24h
	}
}

func (c *conversationCache) key(id string) string {
	return "conversation:" + id
}

func (c *conversationCache) Set(ctx context.Context, state *ConversationState) error {
	state.UpdatedAt = time.Now()
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(state.ConversationID), data, c.ttl).Err()
}

func (c *conversationCache) Get(ctx context.Context, conversationID string) (*ConversationState, error) {
	data, err := c.client.Get(ctx, c.key(conversationID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state ConversationState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *conversationCache) Delete(ctx context.Context, conversationID string) error {
	return c.client.Del(ctx, c.key(conversationID)).Err()
}
