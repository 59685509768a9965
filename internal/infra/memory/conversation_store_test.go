package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"exam-bot/internal/app"
	"exam-bot/internal/domain"
	"exam-bot/internal/store"
)

func TestConversationStoreDropsIdleConversations(t *testing.T) {
	conversations := NewConversationStore()

	conv := conversations.Acquire(1)
	if !conv.Idle() {
		t.Fatalf("expected a new conversation to be idle")
	}
	conversations.Release(conv)
	if conversations.Len() != 0 {
		t.Fatalf("expected idle conversation to be dropped, have %d", conversations.Len())
	}
}

func TestConversationStoreKeepsActiveConversations(t *testing.T) {
	ctx := context.Background()
	s := store.New(NewBackend(), time.Minute)
	if _, err := s.AppendQuestion(ctx, "math", domain.TextInput{Prompt: "1+1?", CorrectText: "2"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	conversations := NewConversationStore()
	dispatcher := app.NewDispatcher(conversations, s, nil, app.Options{Subjects: app.Catalog{{Name: "math"}}})
	user := app.User{ID: 5, FirstName: "Bo"}

	dispatcher.Handle(ctx, user, app.ButtonAction{Command: app.Command{Kind: app.CmdSubject, Arg: "math"}})
	if conversations.Len() != 1 {
		t.Fatalf("expected the running test to be kept, have %d", conversations.Len())
	}

	conv := conversations.Acquire(5)
	session, ok := conv.Session()
	if !ok || session.Subject != "math" || !session.WaitingForText {
		conversations.Release(conv)
		t.Fatalf("expected a math session waiting for text, got %+v", session)
	}
	conversations.Release(conv)

	dispatcher.Handle(ctx, user, app.TextAction{Text: "2"})
	if conversations.Len() != 0 {
		t.Fatalf("expected finished conversation to be dropped, have %d", conversations.Len())
	}
}

func TestConversationStoreSerializesUser(t *testing.T) {
	conversations := NewConversationStore()

	const workers = 50
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conv := conversations.Acquire(9)
			counter++
			conversations.Release(conv)
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Fatalf("expected %d increments, got %d", workers, counter)
	}
	if conversations.Len() != 0 {
		t.Fatalf("expected no conversations left, have %d", conversations.Len())
	}
}
