package memory

import (
	"sync"

	"exam-bot/internal/app"
)

// ConversationStore is an in-memory implementation of app.ConversationRepository.
// Conversations are reference counted so an idle one is only dropped when no other
// goroutine holds or waits for it.
type ConversationStore struct {
	mu            sync.Mutex
	conversations map[int64]*entry
}

type entry struct {
	conv *app.Conversation
	refs int
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		conversations: make(map[int64]*entry),
	}
}

func (s *ConversationStore) Acquire(userID int64) *app.Conversation {
	s.mu.Lock()
	e, ok := s.conversations[userID]
	if !ok {
		e = &entry{conv: app.NewConversation(userID)}
		s.conversations[userID] = e
	}
	e.refs++
	s.mu.Unlock()

	e.conv.Lock()
	return e.conv
}

func (s *ConversationStore) Release(conv *app.Conversation) {
	idle := conv.Idle()
	conv.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.conversations[conv.UserID]
	if !ok || e.conv != conv {
		return
	}
	e.refs--
	if e.refs == 0 && idle {
		delete(s.conversations, conv.UserID)
	}
}

// Len reports how many conversations are tracked.
func (s *ConversationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}
