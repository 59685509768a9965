package redis

import (
	"context"
	"log"
	"strconv"
	"time"

	"exam-bot/internal/app"
	"exam-bot/internal/infra/memory"
	"github.com/redis/go-redis/v9"
)

const markTimeout = time.Second

// ConversationStore is a Redis-aware implementation of app.ConversationRepository.
// Notes:
//   - Conversation state itself stays in the in-memory registry; sessions and drafts
//     hold questions and cannot be shared across instances without a codec.
//   - Redis carries a liveness marker per active conversation so operators (and other
//     instances) can see who is mid-test or mid-authoring. The marker is written after
//     the conversation is released, so a slow Redis only delays its own user.
type ConversationStore struct {
	*memory.ConversationStore

	client  *redis.Client
	prefix  string
	ttl     time.Duration
	timeout time.Duration
}

func NewConversationStore(client *redis.Client, prefix string, ttl time.Duration) *ConversationStore {
	if prefix == "" {
		prefix = "exambot"
	}
	return &ConversationStore{
		ConversationStore: memory.NewConversationStore(),
		client:            client,
		prefix:            prefix,
		ttl:               ttl,
		timeout:           markTimeout,
	}
}

func (s *ConversationStore) Release(conv *app.Conversation) {
	userID := conv.UserID
	idle := conv.Idle()
	s.ConversationStore.Release(conv)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	var err error
	if idle {
		err = s.client.Del(ctx, s.key(userID)).Err()
	} else {
		// refreshed on every action
		err = s.client.Set(ctx, s.key(userID), "1", s.ttl).Err()
	}
	if err != nil {
		log.Printf("mark conversation of user %d: %v", userID, err)
	}
}

func (s *ConversationStore) key(userID int64) string {
	return s.prefix + ":conversation:" + strconv.FormatInt(userID, 10)
}
