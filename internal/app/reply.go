package app

import "exam-bot/internal/domain"

// Reply is everything the dispatcher wants a transport to show in response to one
// action. An empty Reply means the action was ignored.
type Reply struct {
	Toast    string    `json:"toast,omitempty"`
	Messages []Message `json:"messages,omitempty"`
	Outcome  *Outcome  `json:"outcome,omitempty"`
}

// Message is a text (or media caption) with optional rows of buttons. Answerable marks
// the message carrying the current question's answer keyboard; transports report where
// it landed through Dispatcher.BindKeyboard.
type Message struct {
	Text       string      `json:"text"`
	Buttons    [][]Button  `json:"buttons,omitempty"`
	Media      *Attachment `json:"media,omitempty"`
	Answerable bool        `json:"answerable,omitempty"`
}

// Button is a labeled option whose Data is a Command in wire form.
type Button struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// Attachment points at stored media to send alongside a message.
type Attachment struct {
	Kind MediaKind `json:"kind"`
	Ref  string    `json:"ref"`
}

// Outcome is the structured result of a finished test.
type Outcome struct {
	Subject    string        `json:"subject"`
	Score      int           `json:"score"`
	Total      int           `json:"total"`
	Percentage float64       `json:"percentage"`
	Remark     domain.Remark `json:"remark"`
	Saved      bool          `json:"saved"`
}

// Answerable returns the index of the message carrying an answer keyboard.
func (r Reply) Answerable() (int, bool) {
	for i, m := range r.Messages {
		if m.Answerable {
			return i, true
		}
	}
	return 0, false
}

// Empty reports whether the reply carries nothing to show.
func (r Reply) Empty() bool {
	return r.Toast == "" && len(r.Messages) == 0 && r.Outcome == nil
}

func (r *Reply) say(text string, rows ...[]Button) {
	r.Messages = append(r.Messages, Message{Text: text, Buttons: rows})
}

func textReply(text string, rows ...[]Button) Reply {
	var r Reply
	r.say(text, rows...)
	return r
}

func button(label string, cmd Command) Button {
	return Button{Label: label, Data: cmd.String()}
}

func row(buttons ...Button) []Button {
	return buttons
}
