package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"exam-bot/internal/domain"
	"exam-bot/internal/infra/memory"
	"exam-bot/internal/store"
)

func TestBootstrapCreatesDefaultSubjects(t *testing.T) {
	ctx := context.Background()
	s := store.New(memory.NewBackend(), time.Minute)

	if err := s.Bootstrap(ctx, domain.DefaultSubjects); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	bank, err := s.LoadQuestions(ctx)
	if err != nil {
		t.Fatalf("load questions: %v", err)
	}
	if len(bank) != len(domain.DefaultSubjects) {
		t.Fatalf("expected %d subjects, got %d", len(domain.DefaultSubjects), len(bank))
	}
	for _, subject := range domain.DefaultSubjects {
		if questions, ok := bank[subject]; !ok || len(questions) != 0 {
			t.Fatalf("expected empty subject %s, got %v (present=%v)", subject, questions, ok)
		}
	}

	users, err := s.LoadUsers(ctx)
	if err != nil || len(users) != 0 {
		t.Fatalf("expected empty users, got %v (%v)", users, err)
	}
	results, err := s.LoadResults(ctx)
	if err != nil || len(results) != 0 {
		t.Fatalf("expected empty results, got %v (%v)", results, err)
	}
}

func TestBootstrapKeepsExistingQuestions(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewBackend()
	s := store.New(backend, time.Minute)

	if _, err := s.AppendQuestion(ctx, "history", sampleChoice()); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Bootstrap(ctx, []string{"history", "math"}); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	// a fresh store over the same backend sees the persisted document
	reopened := store.New(backend, time.Minute)
	history, err := reopened.Subject(ctx, "history")
	if err != nil {
		t.Fatalf("subject history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected history to keep 1 question, got %d", len(history))
	}
	math, err := reopened.Subject(ctx, "math")
	if err != nil || len(math) != 0 {
		t.Fatalf("expected empty math subject, got %v (%v)", math, err)
	}
}

func TestSubjectNotFound(t *testing.T) {
	s := store.New(memory.NewBackend(), 0)
	_, err := s.Subject(context.Background(), "missing")
	if !errors.Is(err, domain.ErrSubjectNotFound) {
		t.Fatalf("expected ErrSubjectNotFound, got %v", err)
	}
}

func TestAppendQuestionPreservesOrder(t *testing.T) {
	ctx := context.Background()
	s := store.New(memory.NewBackend(), time.Minute)

	prompts := []string{"first", "second", "third"}
	for i, p := range prompts {
		count, err := s.AppendQuestion(ctx, "geo", domain.TextInput{Prompt: p, CorrectText: "x"})
		if err != nil {
			t.Fatalf("append %s: %v", p, err)
		}
		if count != i+1 {
			t.Fatalf("expected count %d, got %d", i+1, count)
		}
	}
	questions, err := s.Subject(ctx, "geo")
	if err != nil {
		t.Fatalf("subject: %v", err)
	}
	for i, q := range questions {
		if q.Text() != prompts[i] {
			t.Fatalf("question %d: expected %q, got %q", i, prompts[i], q.Text())
		}
	}
}

func TestRegisterUserOnlyOnce(t *testing.T) {
	ctx := context.Background()
	s := store.New(memory.NewBackend(), time.Minute)

	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	added, err := s.RegisterUser(ctx, 42, domain.UserProfile{Name: "Ann", Registered: first})
	if err != nil || !added {
		t.Fatalf("expected first registration, got added=%v err=%v", added, err)
	}
	added, err = s.RegisterUser(ctx, 42, domain.UserProfile{Name: "Renamed", Registered: first.Add(time.Hour)})
	if err != nil || added {
		t.Fatalf("expected second registration to be a no-op, got added=%v err=%v", added, err)
	}

	users, err := s.LoadUsers(ctx)
	if err != nil {
		t.Fatalf("load users: %v", err)
	}
	got := users[domain.UserKey(42)]
	if got.Name != "Ann" || !got.Registered.Equal(first) {
		t.Fatalf("expected original profile, got %+v", got)
	}
}

func TestAppendResultAndStats(t *testing.T) {
	ctx := context.Background()
	s := store.New(memory.NewBackend(), time.Minute)
	if err := s.Bootstrap(ctx, []string{"a", "b"}); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if _, err := s.AppendQuestion(ctx, "b", sampleChoice()); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.RegisterUser(ctx, 1, domain.UserProfile{Name: "One"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	rec, err := s.AppendResult(ctx, 1, domain.ResultRecord{Subject: "b", Score: 1, Total: 2, Percentage: 50})
	if err != nil {
		t.Fatalf("append result: %v", err)
	}
	if rec.ID == "" || rec.Date.IsZero() {
		t.Fatalf("expected id and date to be assigned, got %+v", rec)
	}
	if _, err := s.AppendResult(ctx, 1, domain.ResultRecord{Subject: "b", Score: 2, Total: 2, Percentage: 100}); err != nil {
		t.Fatalf("append result 2: %v", err)
	}

	results, err := s.Results(ctx, 1)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results) != 2 || results[0].Score != 1 || results[1].Score != 2 {
		t.Fatalf("expected results in order, got %+v", results)
	}
	none, err := s.Results(ctx, 2)
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no results for unknown user, got %v (%v)", none, err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Users != 1 || stats.CompletedTests != 2 {
		t.Fatalf("unexpected totals %+v", stats)
	}
	want := []domain.SubjectCount{{Subject: "a", Count: 0}, {Subject: "b", Count: 1}}
	if len(stats.Subjects) != len(want) {
		t.Fatalf("expected %v, got %v", want, stats.Subjects)
	}
	for i := range want {
		if stats.Subjects[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, stats.Subjects)
		}
	}
}

func TestConcurrentAppendsAreNotLost(t *testing.T) {
	ctx := context.Background()
	s := store.New(memory.NewBackend(), time.Minute)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if _, err := s.AppendResult(ctx, id%3, domain.ResultRecord{Subject: "a", Score: 1, Total: 1}); err != nil {
				t.Errorf("append result: %v", err)
			}
		}(int64(i))
	}
	wg.Wait()

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.CompletedTests != writers {
		t.Fatalf("expected %d results, got %d", writers, stats.CompletedTests)
	}
}

func TestLoadServesFromCache(t *testing.T) {
	ctx := context.Background()
	backend := &countingBackend{Backend: memory.NewBackend()}
	s := store.New(backend, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := s.LoadQuestions(ctx); err != nil {
			t.Fatalf("load questions: %v", err)
		}
	}
	if backend.loads() != 1 {
		t.Fatalf("expected one backend load, got %d", backend.loads())
	}

	// writes refresh the cached copy rather than invalidating it
	if _, err := s.AppendQuestion(ctx, "x", sampleChoice()); err != nil {
		t.Fatalf("append: %v", err)
	}
	questions, err := s.Subject(ctx, "x")
	if err != nil || len(questions) != 1 {
		t.Fatalf("expected cached write to be visible, got %v (%v)", questions, err)
	}
	if backend.loads() != 1 {
		t.Fatalf("expected cache hit after write, got %d loads", backend.loads())
	}
}

func TestLoadReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := store.New(memory.NewBackend(), time.Minute)
	if err := s.Save(ctx, domain.CollectionUsers, []byte(`{"1":{"name":"a","registered":"2026-01-01T00:00:00Z"}}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := s.Load(ctx, domain.CollectionUsers)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	data[0] = 'X'

	users, err := s.LoadUsers(ctx)
	if err != nil {
		t.Fatalf("load users after mutation: %v", err)
	}
	if users["1"].Name != "a" {
		t.Fatalf("expected cached document untouched, got %+v", users)
	}
}

func TestUnknownCollection(t *testing.T) {
	s := store.New(memory.NewBackend(), 0)
	if _, err := s.Load(context.Background(), domain.Collection("sessions")); !errors.Is(err, domain.ErrUnknownCollection) {
		t.Fatalf("expected ErrUnknownCollection, got %v", err)
	}
}

func TestBackendErrorsPropagate(t *testing.T) {
	boom := errors.New("disk full")
	s := store.New(failingBackend{err: boom}, 0)
	if _, err := s.AppendQuestion(context.Background(), "a", sampleChoice()); !errors.Is(err, boom) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

type countingBackend struct {
	store.Backend
	mu    sync.Mutex
	calls int
}

func (b *countingBackend) Load(ctx context.Context, c domain.Collection) ([]byte, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	return b.Backend.Load(ctx, c)
}

func (b *countingBackend) loads() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

type failingBackend struct {
	err error
}

func (f failingBackend) Load(context.Context, domain.Collection) ([]byte, error) { return nil, nil }
func (f failingBackend) Save(context.Context, domain.Collection, []byte) error   { return f.err }

func sampleChoice() domain.Question {
	return domain.MultipleChoice{
		Prompt:       "What is 2 + 2?",
		Options:      []string{"3", "4"},
		CorrectIndex: 1,
	}
}
