package app

import (
	"context"
	"log"
	"time"

	"exam-bot/internal/domain"
)

// Options configures a Dispatcher.
type Options struct {
	AdminID  int64
	Subjects Catalog
	Now      func() time.Time
}

// Dispatcher routes each inbound action to the test or authoring machine based on the
// action itself and the user's conversation state. It owns the per-user conversations.
type Dispatcher struct {
	conversations ConversationRepository
	repo          Repository
	tester        *Tester
	author        *Author
	catalog       Catalog
	now           func() time.Time
}

func NewDispatcher(conversations ConversationRepository, repo Repository, blobs BlobStore, opts Options) *Dispatcher {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	tester := NewTester(repo, blobs, opts.Subjects)
	tester.now = now
	return &Dispatcher{
		conversations: conversations,
		repo:          repo,
		tester:        tester,
		author:        NewAuthor(repo, blobs, opts.Subjects, opts.AdminID),
		catalog:       opts.Subjects,
		now:           now,
	}
}

// Handle processes one action for user. Actions of the same user are serialized;
// actions that make no sense in the current state return an empty Reply.
func (d *Dispatcher) Handle(ctx context.Context, user User, action Action) Reply {
	conv := d.conversations.Acquire(user.ID)
	defer d.conversations.Release(conv)

	switch a := action.(type) {
	case StartAction:
		return d.start(ctx, user, conv)
	case ButtonAction:
		return d.press(ctx, user, conv, a)
	case TextAction:
		return d.text(ctx, user, conv, a.Text)
	case MediaAction:
		return d.author.ReceiveMedia(ctx, user, conv, a)
	}
	return Reply{}
}

func (d *Dispatcher) start(ctx context.Context, user User, conv *Conversation) Reply {
	d.leaveSession(conv)
	_, err := d.repo.RegisterUser(ctx, user.ID, domain.UserProfile{
		Name:       user.FirstName,
		Username:   user.Username,
		Registered: d.now(),
	})
	if err != nil {
		log.Printf("register user %d: %v", user.ID, err)
	}
	return d.welcome(user)
}

func (d *Dispatcher) press(ctx context.Context, user User, conv *Conversation, a ButtonAction) Reply {
	cmd := a.Command
	switch cmd.Kind {
	case CmdStartTest:
		d.leaveSession(conv)
		return d.subjectMenu()
	case CmdSubject:
		return d.tester.ChooseSubject(ctx, user, conv, cmd.Arg)
	case CmdAnswer:
		return d.tester.SubmitChoice(ctx, user, conv, cmd.Index, a.MessageID)
	case CmdAdminPanel:
		d.leaveSession(conv)
		return d.adminPanel(user)
	case CmdAddQuestion:
		return d.author.Begin(ctx, user, conv)
	case CmdAddSubject:
		return d.author.PickSubject(ctx, user, conv, cmd.Arg)
	case CmdQuestionType:
		return d.author.PickType(ctx, user, conv, cmd.Arg)
	case CmdCorrect:
		return d.author.ReceiveCorrectChoice(ctx, user, conv, cmd.Index)
	case CmdAdminStats:
		return d.stats(ctx, user)
	case CmdMyResults:
		d.leaveSession(conv)
		return d.myResults(ctx, user)
	case CmdBackToMain:
		d.leaveSession(conv)
		return d.mainMenu(user)
	}
	return Reply{}
}

// text routes free text: an answer when the session waits for one, a draft step when
// the draft expects text, otherwise nothing.
func (d *Dispatcher) text(ctx context.Context, user User, conv *Conversation, text string) Reply {
	if session, ok := conv.Session(); ok && session.WaitingForText {
		return d.tester.SubmitText(ctx, user, conv, text)
	}
	if draft, ok := conv.Draft(); ok && draft.ExpectsText() {
		return d.author.ReceiveText(ctx, user, conv, text)
	}
	return Reply{}
}

// BindKeyboard records which message shows the current question's answer buttons, so
// presses on any older keyboard are dropped. Transports call it after delivering the
// Answerable message of a reply.
func (d *Dispatcher) BindKeyboard(userID int64, messageID int) {
	conv := d.conversations.Acquire(userID)
	defer d.conversations.Release(conv)
	if session, ok := conv.Session(); ok {
		session.Keyboard = messageID
	}
}

// leaveSession discards an unfinished test when the user navigates away. Drafts are
// kept, including one parked by the session; the administrator resumes or restarts
// them explicitly.
func (d *Dispatcher) leaveSession(conv *Conversation) {
	conv.endSession()
}
