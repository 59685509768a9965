package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"exam-bot/internal/domain"
)

// Tester runs the test-taking state machine: subject selection, question
// presentation, answer collection and result computation.
type Tester struct {
	repo    Repository
	blobs   BlobStore
	catalog Catalog
	now     func() time.Time
}

func NewTester(repo Repository, blobs BlobStore, catalog Catalog) *Tester {
	return &Tester{repo: repo, blobs: blobs, catalog: catalog, now: time.Now}
}

// ChooseSubject starts a session on subject. A subject without questions never
// starts a session; the user is sent back to subject selection instead.
func (t *Tester) ChooseSubject(ctx context.Context, user User, conv *Conversation, subject string) Reply {
	questions, err := t.repo.Subject(ctx, subject)
	if err != nil && !errors.Is(err, domain.ErrSubjectNotFound) {
		log.Printf("load subject %s for user %d: %v", subject, user.ID, err)
		return textReply(msgFailure, row(button(labelBack, Command{Kind: CmdStartTest})))
	}
	if len(questions) == 0 {
		conv.endSession()
		return textReply(
			fmt.Sprintf(msgNoQuestions, t.catalog.Title(subject), len(questions)),
			row(button(labelBack, Command{Kind: CmdStartTest})),
		)
	}

	conv.startSession(&Session{
		Subject:   subject,
		Questions: questions,
		Answers:   []domain.AnswerRecord{},
	})
	var reply Reply
	t.present(ctx, user, conv, &reply)
	return reply
}

// SubmitChoice answers the current question with option index. It is a no-op when no
// session is active, the press came from a keyboard other than the bound one, the
// current question takes free text, or index is out of range.
func (t *Tester) SubmitChoice(ctx context.Context, user User, conv *Conversation, index, messageID int) Reply {
	session, ok := conv.Session()
	if !ok {
		return Reply{}
	}
	if messageID != 0 && session.Keyboard != 0 && messageID != session.Keyboard {
		log.Printf("stale answer from message %d for user %d, current keyboard is %d", messageID, user.ID, session.Keyboard)
		return Reply{}
	}
	q, ok := session.Current()
	if !ok {
		return Reply{}
	}
	choice, ok := q.(domain.Choices)
	if !ok || index < 0 || index >= len(choice.ChoiceOptions()) {
		return Reply{}
	}

	var reply Reply
	correct := index == choice.Correct()
	if correct {
		reply.Toast = msgCorrectToast
	} else {
		reply.Toast = fmt.Sprintf(msgWrongToast, domain.OptionLabel(choice.Correct()))
	}
	session.record(strconv.Itoa(index), correct)
	t.present(ctx, user, conv, &reply)
	return reply
}

// SubmitText answers the current free-text question. Both sides are trimmed and
// lower-cased before an exact comparison.
func (t *Tester) SubmitText(ctx context.Context, user User, conv *Conversation, text string) Reply {
	session, ok := conv.Session()
	if !ok || !session.WaitingForText {
		return Reply{}
	}
	q, ok := session.Current()
	if !ok {
		return Reply{}
	}
	ti, ok := q.(domain.TextInput)
	if !ok {
		session.WaitingForText = false
		return Reply{}
	}

	var reply Reply
	given := domain.NormalizeAnswer(text)
	correct := given == domain.NormalizeAnswer(ti.CorrectText)
	if correct {
		reply.say(msgCorrectText)
	} else {
		reply.say(fmt.Sprintf(msgWrongText, ti.CorrectText))
	}
	session.record(given, correct)
	t.present(ctx, user, conv, &reply)
	return reply
}

// present renders the current question, or finishes the session when every question
// has been answered.
func (t *Tester) present(ctx context.Context, user User, conv *Conversation, reply *Reply) {
	session, ok := conv.Session()
	if !ok {
		return
	}
	q, ok := session.Current()
	if !ok {
		t.finish(ctx, user, conv, session, reply)
		return
	}

	text := fmt.Sprintf(msgQuestionHeader, session.Index+1, session.Total(), q.Text())
	switch v := q.(type) {
	case domain.TextInput:
		session.WaitingForText = true
		session.Keyboard = 0
		reply.say(text + msgTypeAnswer)
	case domain.Choices:
		session.WaitingForText = false
		session.Keyboard = 0
		msg := Message{Text: text, Buttons: optionRows(v.ChoiceOptions(), CmdAnswer), Answerable: true}
		if m, ok := q.(domain.Media); ok {
			kind := MediaImage
			if m.Type() == domain.TypeAudio {
				kind = MediaAudio
			}
			if t.blobs != nil && t.blobs.Exists(m.Ref()) {
				msg.Media = &Attachment{Kind: kind, Ref: m.Ref()}
			} else {
				log.Printf("media %s for %s question %d is missing, sending text only", m.Ref(), session.Subject, session.Index)
			}
		}
		reply.Messages = append(reply.Messages, msg)
	}
}

// finish converts the session into a result record and discards it.
func (t *Tester) finish(ctx context.Context, user User, conv *Conversation, session *Session, reply *Reply) {
	conv.endSession()

	total := session.Total()
	percentage := domain.Percentage(session.Score, total)
	remark := domain.RemarkFor(percentage)
	outcome := &Outcome{
		Subject:    session.Subject,
		Score:      session.Score,
		Total:      total,
		Percentage: percentage,
		Remark:     remark,
	}

	_, err := t.repo.AppendResult(ctx, user.ID, domain.ResultRecord{
		Subject:    session.Subject,
		Score:      session.Score,
		Total:      total,
		Percentage: percentage,
		Date:       t.now(),
	})
	outcome.Saved = err == nil

	text := fmt.Sprintf(msgFinished, session.Score, total, percentage) + remarkTexts[remark]
	if err != nil {
		log.Printf("save result for user %d: %v", user.ID, err)
		text += msgResultNotSaved
	}
	reply.Outcome = outcome
	reply.say(text,
		row(button(labelRetry, Command{Kind: CmdStartTest})),
		row(button(labelMainMenu, Command{Kind: CmdBackToMain})),
	)
}

// optionRows lays out one lettered button per option.
func optionRows(options []string, kind CommandKind) [][]Button {
	rows := make([][]Button, 0, len(options))
	for i, opt := range options {
		rows = append(rows, row(button(
			fmt.Sprintf("%s) %s", domain.OptionLabel(i), opt),
			Command{Kind: kind, Index: i},
		)))
	}
	return rows
}
