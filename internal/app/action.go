package app

import (
	"context"
	"io"
	"strconv"
	"strings"

	"exam-bot/internal/domain"
)

// User identifies who performed an action.
type User struct {
	ID        int64
	FirstName string
	Username  string
}

// Action is one inbound event from a transport: StartAction, ButtonAction,
// TextAction or MediaAction.
type Action interface {
	action()
}

// StartAction is the /start command.
type StartAction struct{}

// ButtonAction is a button press, already decoded into a Command. MessageID names the
// message that carried the button; zero when the transport has no such notion.
type ButtonAction struct {
	Command   Command
	MessageID int
}

// TextAction is a free-text message.
type TextAction struct {
	Text string
}

// MediaKind distinguishes uploaded audio from uploaded pictures.
type MediaKind string

const (
	MediaAudio MediaKind = "audio"
	MediaImage MediaKind = "image"
)

// MediaSource opens the bytes of an upload; transports fetch lazily so nothing is
// downloaded for uploads the dispatcher ignores.
type MediaSource func(ctx context.Context) (io.ReadCloser, error)

// MediaAction is an audio or picture upload.
type MediaAction struct {
	Kind   MediaKind
	FileID string
	Source MediaSource
}

func (StartAction) action()  {}
func (ButtonAction) action() {}
func (TextAction) action()   {}
func (MediaAction) action()  {}

// CommandKind enumerates the button vocabulary shared with the transports.
type CommandKind int

const (
	CmdUnknown CommandKind = iota
	CmdStartTest
	CmdSubject
	CmdAnswer
	CmdAdminPanel
	CmdAddQuestion
	CmdAddSubject
	CmdQuestionType
	CmdCorrect
	CmdAdminStats
	CmdMyResults
	CmdBackToMain
)

// Command is a decoded button identifier. Arg carries the subject name or question
// type; Index carries the option position for answer/correct buttons.
type Command struct {
	Kind  CommandKind
	Arg   string
	Index int
}

const (
	tokenStartTest   = "start_test"
	tokenAdminPanel  = "admin_panel"
	tokenAddQuestion = "admin_add_question"
	tokenAdminStats  = "admin_stats"
	tokenMyResults   = "my_results"
	tokenBackToMain  = "back_to_main"

	prefixSubject = "subject_"
	prefixAnswer  = "answer_"
	prefixAdd     = "add_"
	prefixQtype   = "qtype_"
	prefixCorrect = "correct_"
)

var exactTokens = map[string]CommandKind{
	tokenStartTest:   CmdStartTest,
	tokenAdminPanel:  CmdAdminPanel,
	tokenAddQuestion: CmdAddQuestion,
	tokenAdminStats:  CmdAdminStats,
	tokenMyResults:   CmdMyResults,
	tokenBackToMain:  CmdBackToMain,
}

// ParseCommand decodes a button identifier. Anything outside the vocabulary, or a
// prefixed token with a malformed argument, decodes to CmdUnknown.
func ParseCommand(data string) Command {
	if kind, ok := exactTokens[data]; ok {
		return Command{Kind: kind}
	}
	switch {
	case strings.HasPrefix(data, prefixSubject):
		return namedCommand(CmdSubject, strings.TrimPrefix(data, prefixSubject))
	case strings.HasPrefix(data, prefixAnswer):
		return indexedCommand(CmdAnswer, strings.TrimPrefix(data, prefixAnswer))
	case strings.HasPrefix(data, prefixAdd):
		return namedCommand(CmdAddSubject, strings.TrimPrefix(data, prefixAdd))
	case strings.HasPrefix(data, prefixQtype):
		qt, err := domain.ParseQuestionType(strings.TrimPrefix(data, prefixQtype))
		if err != nil {
			return Command{Kind: CmdUnknown}
		}
		return Command{Kind: CmdQuestionType, Arg: string(qt)}
	case strings.HasPrefix(data, prefixCorrect):
		return indexedCommand(CmdCorrect, strings.TrimPrefix(data, prefixCorrect))
	}
	return Command{Kind: CmdUnknown}
}

func namedCommand(kind CommandKind, arg string) Command {
	if arg == "" {
		return Command{Kind: CmdUnknown}
	}
	return Command{Kind: kind, Arg: arg}
}

func indexedCommand(kind CommandKind, raw string) Command {
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		return Command{Kind: CmdUnknown}
	}
	return Command{Kind: kind, Index: i}
}

// String encodes c back into its button identifier.
func (c Command) String() string {
	switch c.Kind {
	case CmdStartTest:
		return tokenStartTest
	case CmdSubject:
		return prefixSubject + c.Arg
	case CmdAnswer:
		return prefixAnswer + strconv.Itoa(c.Index)
	case CmdAdminPanel:
		return tokenAdminPanel
	case CmdAddQuestion:
		return tokenAddQuestion
	case CmdAddSubject:
		return prefixAdd + c.Arg
	case CmdQuestionType:
		return prefixQtype + c.Arg
	case CmdCorrect:
		return prefixCorrect + strconv.Itoa(c.Index)
	case CmdAdminStats:
		return tokenAdminStats
	case CmdMyResults:
		return tokenMyResults
	case CmdBackToMain:
		return tokenBackToMain
	default:
		return ""
	}
}
