package domain

import (
	"encoding/json"
	"fmt"
)

// QuestionType names one of the four question variants.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeTextInput      QuestionType = "text_input"
	TypeAudio          QuestionType = "audio"
	TypeImage          QuestionType = "image"
)

// QuestionTypes lists the variants in the order they are offered to the administrator.
var QuestionTypes = []QuestionType{TypeMultipleChoice, TypeTextInput, TypeAudio, TypeImage}

// ParseQuestionType validates raw against the known variants.
func ParseQuestionType(raw string) (QuestionType, error) {
	for _, t := range QuestionTypes {
		if string(t) == raw {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownQuestionType, raw)
}

// HasChoices reports whether questions of this type are answered by picking an option.
func (t QuestionType) HasChoices() bool {
	return t == TypeMultipleChoice || t == TypeAudio || t == TypeImage
}

// HasMedia reports whether questions of this type carry an uploaded media reference.
func (t QuestionType) HasMedia() bool {
	return t == TypeAudio || t == TypeImage
}

// Question is a closed sum over MultipleChoice, TextInput, Audio and Image.
type Question interface {
	Type() QuestionType
	Text() string
	question()
}

// Choices is implemented by every variant answered with an option index.
type Choices interface {
	Question
	ChoiceOptions() []string
	Correct() int
}

// Media is implemented by the variants that present an attached file.
type Media interface {
	Choices
	Ref() string
}

// MultipleChoice is a plain lettered-options question.
type MultipleChoice struct {
	Prompt       string
	Options      []string
	CorrectIndex int
}

// TextInput is answered with free text compared case-insensitively.
type TextInput struct {
	Prompt      string
	CorrectText string
}

// Audio is a choice question presented together with an audio file.
type Audio struct {
	MultipleChoice
	MediaRef string
}

// Image is a choice question presented together with a picture.
type Image struct {
	MultipleChoice
	MediaRef string
}

func (MultipleChoice) Type() QuestionType { return TypeMultipleChoice }
func (TextInput) Type() QuestionType      { return TypeTextInput }
func (Audio) Type() QuestionType          { return TypeAudio }
func (Image) Type() QuestionType          { return TypeImage }

func (q MultipleChoice) Text() string { return q.Prompt }
func (q TextInput) Text() string      { return q.Prompt }

func (MultipleChoice) question() {}
func (TextInput) question()      {}

func (q MultipleChoice) ChoiceOptions() []string { return q.Options }
func (q MultipleChoice) Correct() int            { return q.CorrectIndex }

func (q Audio) Ref() string { return q.MediaRef }
func (q Image) Ref() string { return q.MediaRef }

// NewChoiceQuestion builds a choice-bearing question of type t. mediaRef is ignored
// for multiple_choice.
func NewChoiceQuestion(t QuestionType, prompt string, options []string, correct int, mediaRef string) (Question, error) {
	if correct < 0 || correct >= len(options) {
		return nil, fmt.Errorf("%w: %d of %d", ErrCorrectIndexOutOfRange, correct, len(options))
	}
	mc := MultipleChoice{
		Prompt:       prompt,
		Options:      append([]string(nil), options...),
		CorrectIndex: correct,
	}
	switch t {
	case TypeMultipleChoice:
		return mc, nil
	case TypeAudio:
		return Audio{MultipleChoice: mc, MediaRef: mediaRef}, nil
	case TypeImage:
		return Image{MultipleChoice: mc, MediaRef: mediaRef}, nil
	default:
		return nil, fmt.Errorf("%w: %q is not a choice type", ErrUnknownQuestionType, t)
	}
}

// questionRecord is the persisted shape of a question. Legacy* fields are the names
// used by the earlier bot's data files and are only read.
type questionRecord struct {
	Type         QuestionType `json:"type"`
	Prompt       string       `json:"prompt"`
	Options      []string     `json:"options,omitempty"`
	CorrectIndex *int         `json:"correct_index,omitempty"`
	CorrectText  string       `json:"correct_text,omitempty"`
	MediaRef     string       `json:"media_ref,omitempty"`

	LegacyQuestion string `json:"question,omitempty"`
	LegacyCorrect  *int   `json:"correct_answer,omitempty"`
	LegacyAudio    string `json:"audio_file,omitempty"`
	LegacyImage    string `json:"image_file,omitempty"`
}

func encodeQuestion(q Question) (questionRecord, error) {
	switch v := q.(type) {
	case TextInput:
		return questionRecord{Type: TypeTextInput, Prompt: v.Prompt, CorrectText: v.CorrectText}, nil
	case Choices:
		correct := v.Correct()
		rec := questionRecord{
			Type:         v.Type(),
			Prompt:       v.Text(),
			Options:      v.ChoiceOptions(),
			CorrectIndex: &correct,
		}
		if m, ok := q.(Media); ok {
			rec.MediaRef = m.Ref()
		}
		return rec, nil
	default:
		return questionRecord{}, fmt.Errorf("%w: %T", ErrUnknownQuestionType, q)
	}
}

func decodeQuestion(rec questionRecord) (Question, error) {
	prompt := rec.Prompt
	if prompt == "" {
		prompt = rec.LegacyQuestion
	}
	if _, err := ParseQuestionType(string(rec.Type)); err != nil {
		return nil, err
	}
	if rec.Type == TypeTextInput {
		return TextInput{Prompt: prompt, CorrectText: rec.CorrectText}, nil
	}

	correct := rec.CorrectIndex
	if correct == nil {
		correct = rec.LegacyCorrect
	}
	if correct == nil {
		return nil, fmt.Errorf("%w: %s question without correct index", ErrInvalidQuestion, rec.Type)
	}
	ref := rec.MediaRef
	if ref == "" && rec.Type == TypeAudio {
		ref = rec.LegacyAudio
	}
	if ref == "" && rec.Type == TypeImage {
		ref = rec.LegacyImage
	}
	return NewChoiceQuestion(rec.Type, prompt, rec.Options, *correct, ref)
}

// QuestionList is an ordered sequence of questions with a tagged JSON encoding.
type QuestionList []Question

func (l QuestionList) MarshalJSON() ([]byte, error) {
	records := make([]questionRecord, 0, len(l))
	for _, q := range l {
		rec, err := encodeQuestion(q)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return json.Marshal(records)
}

func (l *QuestionList) UnmarshalJSON(data []byte) error {
	var records []questionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	out := make(QuestionList, 0, len(records))
	for i, rec := range records {
		q, err := decodeQuestion(rec)
		if err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
		out = append(out, q)
	}
	*l = out
	return nil
}
