package app

import (
	"sync"

	"exam-bot/internal/domain"
)

// ConversationRepository hands out per-user conversations (in-memory, Redis-aware, etc).
// Acquire returns the conversation locked for the caller; Release unlocks it and may
// drop it once it is idle and nobody else is waiting on it.
type ConversationRepository interface {
	Acquire(userID int64) *Conversation
	Release(conv *Conversation)
}

// Conversation is the ephemeral state of one user: idle, taking a test, or authoring
// a question. Its fields are only touched while it is held via Acquire.
type Conversation struct {
	UserID int64

	mu    sync.Mutex
	state conversationState
}

type conversationState interface {
	conversationState()
}

// NewConversation is exported for infrastructure layers that own the registry.
func NewConversation(userID int64) *Conversation {
	return &Conversation{UserID: userID}
}

func (c *Conversation) Lock()   { c.mu.Lock() }
func (c *Conversation) Unlock() { c.mu.Unlock() }

// Idle reports whether neither a session nor a draft is active.
func (c *Conversation) Idle() bool {
	return c.state == nil
}

// Session returns the active test session, if any.
func (c *Conversation) Session() (*Session, bool) {
	s, ok := c.state.(*Session)
	return s, ok
}

// Draft returns the administrator's in-progress question, if any.
func (c *Conversation) Draft() (*Draft, bool) {
	d, ok := c.state.(*Draft)
	return d, ok
}

func (c *Conversation) begin(state conversationState) {
	c.state = state
}

func (c *Conversation) reset() {
	c.state = nil
}

// startSession makes s the active state. A draft in progress is parked on the session
// and comes back when the session ends.
func (c *Conversation) startSession(s *Session) {
	switch prev := c.state.(type) {
	case *Draft:
		s.parked = prev
	case *Session:
		s.parked = prev.parked
	}
	c.state = s
}

// endSession discards the active session, restoring any parked draft. It is a no-op
// when no session is active.
func (c *Conversation) endSession() {
	s, ok := c.Session()
	if !ok {
		return
	}
	if s.parked != nil {
		c.state = s.parked
		return
	}
	c.state = nil
}

// Session is one attempt at a subject's test. Questions is the subject as it was when
// the test started, so questions appended mid-attempt do not change Total.
type Session struct {
	Subject        string
	Questions      domain.QuestionList
	Index          int
	Score          int
	Answers        []domain.AnswerRecord
	WaitingForText bool
	// Keyboard is the message id showing the current question's answer buttons, zero
	// until a transport binds it.
	Keyboard int

	parked *Draft
}

func (*Session) conversationState() {}

// Total is the number of questions in this attempt.
func (s *Session) Total() int {
	return len(s.Questions)
}

// Current returns the question at Index, or false once every question was answered.
func (s *Session) Current() (domain.Question, bool) {
	if s.Index < 0 || s.Index >= len(s.Questions) {
		return nil, false
	}
	return s.Questions[s.Index], true
}

func (s *Session) record(given string, correct bool) {
	if correct {
		s.Score++
	}
	s.Answers = append(s.Answers, domain.AnswerRecord{
		QuestionIndex: s.Index,
		Given:         given,
		Correct:       correct,
	})
	s.WaitingForText = false
	s.Index++
}

// AuthoringStep marks where the administrator is in the add-question dialogue.
type AuthoringStep string

const (
	StepPickSubject   AuthoringStep = "pick_subject"
	StepPickType      AuthoringStep = "pick_type"
	StepQuestion      AuthoringStep = "question"
	StepCorrectText   AuthoringStep = "correct_text"
	StepMedia         AuthoringStep = "media"
	StepOptions       AuthoringStep = "options"
	StepCorrectChoice AuthoringStep = "correct_choice"
)

// Draft is the question being authored.
type Draft struct {
	Subject      string
	Type         domain.QuestionType
	Step         AuthoringStep
	QuestionText string
	Options      []string
	MediaRef     string
}

func (*Draft) conversationState() {}

// ExpectsText reports whether the next free-text message belongs to this draft.
func (d *Draft) ExpectsText() bool {
	switch d.Step {
	case StepQuestion, StepCorrectText, StepOptions:
		return true
	}
	return false
}
