package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"exam-bot/internal/domain"
)

// Author runs the administrator's add-question dialogue. Every transition checks the
// acting user against the single administrator id before touching any state.
type Author struct {
	repo    Repository
	blobs   BlobStore
	catalog Catalog
	adminID int64
}

func NewAuthor(repo Repository, blobs BlobStore, catalog Catalog, adminID int64) *Author {
	return &Author{repo: repo, blobs: blobs, catalog: catalog, adminID: adminID}
}

// IsAdmin reports whether user may author questions. A zero admin id means no
// administrator is configured.
func (a *Author) IsAdmin(user User) bool {
	return a.adminID != 0 && user.ID == a.adminID
}

// deny returns the permission notice for anyone but the administrator.
func (a *Author) deny(user User, step string) (Reply, bool) {
	if a.IsAdmin(user) {
		return Reply{}, false
	}
	log.Printf("%s by user %d: %v", step, user.ID, domain.ErrPermissionDenied)
	return textReply(msgPermissionDenied), true
}

// Begin starts a fresh draft, overwriting any stale one, and asks for the subject.
func (a *Author) Begin(_ context.Context, user User, conv *Conversation) Reply {
	if reply, denied := a.deny(user, "begin draft"); denied {
		return reply
	}
	conv.begin(&Draft{Step: StepPickSubject})

	rows := make([][]Button, 0, len(a.catalog)+1)
	for _, s := range a.catalog {
		rows = append(rows, row(button(a.catalog.Title(s.Name), Command{Kind: CmdAddSubject, Arg: s.Name})))
	}
	rows = append(rows, row(button(labelBack, Command{Kind: CmdAdminPanel})))
	return textReply(msgPickSubject, rows...)
}

// PickSubject records the target subject and asks for the question type.
func (a *Author) PickSubject(_ context.Context, user User, conv *Conversation, subject string) Reply {
	if reply, denied := a.deny(user, "pick subject"); denied {
		return reply
	}
	draft, ok := conv.Draft()
	if !ok {
		draft = &Draft{}
		conv.begin(draft)
	}
	*draft = Draft{Subject: subject, Step: StepPickType}

	rows := make([][]Button, 0, len(domain.QuestionTypes)+1)
	for _, qt := range domain.QuestionTypes {
		rows = append(rows, row(button(typeLabels[qt], Command{Kind: CmdQuestionType, Arg: string(qt)})))
	}
	rows = append(rows, row(button(labelBack, Command{Kind: CmdAddQuestion})))
	return textReply(msgPickType, rows...)
}

// PickType records the question variant and asks for the question text.
func (a *Author) PickType(_ context.Context, user User, conv *Conversation, raw string) Reply {
	if reply, denied := a.deny(user, "pick type"); denied {
		return reply
	}
	draft, ok := conv.Draft()
	if !ok || draft.Subject == "" {
		return Reply{}
	}
	qt, err := domain.ParseQuestionType(raw)
	if err != nil {
		return Reply{}
	}
	draft.Type = qt
	draft.QuestionText = ""
	draft.Options = nil
	draft.MediaRef = ""
	draft.Step = StepQuestion
	return textReply(msgAskQuestion)
}

// ReceiveText feeds a free-text message into the draft's current step. Messages from
// anyone but the administrator are dropped silently.
func (a *Author) ReceiveText(ctx context.Context, user User, conv *Conversation, text string) Reply {
	if !a.IsAdmin(user) {
		return Reply{}
	}
	draft, ok := conv.Draft()
	if !ok {
		return Reply{}
	}
	switch draft.Step {
	case StepQuestion:
		return a.receiveQuestionText(draft, text)
	case StepCorrectText:
		return a.receiveCorrectText(ctx, conv, draft, text)
	case StepOptions:
		return a.receiveOptions(draft, text)
	}
	return Reply{}
}

func (a *Author) receiveQuestionText(draft *Draft, text string) Reply {
	draft.QuestionText = text
	switch draft.Type {
	case domain.TypeTextInput:
		draft.Step = StepCorrectText
		return textReply(msgAskCorrectText)
	case domain.TypeAudio:
		draft.Step = StepMedia
		return textReply(msgAskAudio)
	case domain.TypeImage:
		draft.Step = StepMedia
		return textReply(msgAskImage)
	default:
		draft.Step = StepOptions
		return textReply(msgAskOptions)
	}
}

func (a *Author) receiveCorrectText(ctx context.Context, conv *Conversation, draft *Draft, text string) Reply {
	q := domain.TextInput{Prompt: draft.QuestionText, CorrectText: strings.TrimSpace(text)}
	return a.commit(ctx, conv, draft, q)
}

// receiveOptions splits the submission into one option per line. Blank lines between
// options are kept as empty options; a submission with no text at all is refused.
func (a *Author) receiveOptions(draft *Draft, text string) Reply {
	options, err := splitOptions(text)
	if err != nil {
		return textReply(msgEmptyOptions)
	}
	draft.Options = options
	draft.Step = StepCorrectChoice
	return textReply(msgPickCorrect, optionRows(options, CmdCorrect)...)
}

func splitOptions(text string) ([]string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, domain.ErrEmptyOptions
	}
	return strings.Split(trimmed, "\n"), nil
}

// ReceiveMedia stores an upload for an audio or image draft. Uploads of the wrong kind,
// or outside the media step, are ignored.
func (a *Author) ReceiveMedia(ctx context.Context, user User, conv *Conversation, media MediaAction) Reply {
	if !a.IsAdmin(user) {
		return Reply{}
	}
	draft, ok := conv.Draft()
	if !ok || draft.Step != StepMedia || !draft.Type.HasMedia() {
		return Reply{}
	}
	want := MediaImage
	if draft.Type == domain.TypeAudio {
		want = MediaAudio
	}
	if media.Kind != want || media.Source == nil {
		return Reply{}
	}

	src, err := media.Source(ctx)
	if err != nil {
		log.Printf("fetch upload %s: %v", media.FileID, err)
		return textReply(msgFailure)
	}
	defer src.Close()

	ref, err := a.blobs.Put(ctx, media.Kind, media.FileID, src)
	if err != nil {
		log.Printf("store upload %s: %v", media.FileID, err)
		return textReply(msgFailure)
	}
	draft.MediaRef = ref
	draft.Step = StepOptions
	if media.Kind == MediaAudio {
		return textReply(msgAudioReceived)
	}
	return textReply(msgImageReceived)
}

// ReceiveCorrectChoice completes a choice-bearing draft with the correct option.
func (a *Author) ReceiveCorrectChoice(ctx context.Context, user User, conv *Conversation, index int) Reply {
	if reply, denied := a.deny(user, "pick correct option"); denied {
		return reply
	}
	draft, ok := conv.Draft()
	if !ok || draft.Step != StepCorrectChoice {
		return Reply{}
	}
	if index < 0 || index >= len(draft.Options) {
		return Reply{}
	}
	q, err := domain.NewChoiceQuestion(draft.Type, draft.QuestionText, draft.Options, index, draft.MediaRef)
	if err != nil {
		log.Printf("build %s question: %v", draft.Type, err)
		return Reply{}
	}
	return a.commit(ctx, conv, draft, q)
}

// commit appends q to the draft's subject and clears the draft. On a failed save the
// draft is left at its current step so the administrator can try again.
func (a *Author) commit(ctx context.Context, conv *Conversation, draft *Draft, q domain.Question) Reply {
	count, err := a.repo.AppendQuestion(ctx, draft.Subject, q)
	if err != nil {
		log.Printf("append %s question to %s: %v", q.Type(), draft.Subject, err)
		return textReply(msgFailure)
	}
	subject := draft.Subject
	conv.reset()
	return textReply(
		fmt.Sprintf(msgQuestionAdded, a.catalog.Title(subject), count),
		row(
			button(labelAddAnother, Command{Kind: CmdAddQuestion}),
			button(labelMainMenu, Command{Kind: CmdBackToMain}),
		),
	)
}
