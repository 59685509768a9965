package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestQuestionListRoundTrip(t *testing.T) {
	audio, err := NewChoiceQuestion(TypeAudio, "Listen", []string{"cat", "dog"}, 1, "bot_data/audio/f1.mp3")
	if err != nil {
		t.Fatalf("new audio: %v", err)
	}
	list := QuestionList{
		MultipleChoice{Prompt: "2+2?", Options: []string{"3", "4"}, CorrectIndex: 1},
		TextInput{Prompt: "Capital of France?", CorrectText: "Paris"},
		audio,
		Image{MultipleChoice: MultipleChoice{Prompt: "Sign?", Options: []string{"stop", "go", ""}, CorrectIndex: 0}, MediaRef: "bot_data/images/f2.jpg"},
	}

	data, err := json.Marshal(list)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got QuestionList
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(list, got) {
		t.Fatalf("round trip mismatch:\nwant %#v\ngot  %#v", list, got)
	}
}

func TestQuestionListDecodesLegacyFields(t *testing.T) {
	raw := `[
		{"type":"multiple_choice","question":"Q1","options":["a","b"],"correct_answer":1},
		{"type":"text_input","question":"Q2","correct_text":"yes"},
		{"type":"audio","question":"Q3","options":["x"],"correct_answer":0,"audio_file":"bot_data/audio/a.mp3"},
		{"type":"image","question":"Q4","options":["x","y"],"correct_answer":1,"image_file":"bot_data/images/b.jpg"}
	]`
	var got QuestionList
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(got))
	}
	if mc, ok := got[0].(MultipleChoice); !ok || mc.CorrectIndex != 1 || mc.Prompt != "Q1" {
		t.Fatalf("unexpected first question %#v", got[0])
	}
	if a, ok := got[2].(Audio); !ok || a.MediaRef != "bot_data/audio/a.mp3" {
		t.Fatalf("unexpected audio question %#v", got[2])
	}
	if img, ok := got[3].(Image); !ok || img.MediaRef != "bot_data/images/b.jpg" || img.Text() != "Q4" {
		t.Fatalf("unexpected image question %#v", got[3])
	}
}

func TestQuestionListRejectsInvalidRecords(t *testing.T) {
	cases := map[string]string{
		"unknown type":    `[{"type":"essay","prompt":"x"}]`,
		"index too large": `[{"type":"multiple_choice","prompt":"x","options":["a"],"correct_index":1}]`,
		"missing index":   `[{"type":"image","prompt":"x","options":["a"]}]`,
		"negative index":  `[{"type":"audio","prompt":"x","options":["a"],"correct_index":-1}]`,
	}
	for name, raw := range cases {
		var got QuestionList
		if err := json.Unmarshal([]byte(raw), &got); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestNewChoiceQuestionValidatesIndex(t *testing.T) {
	if _, err := NewChoiceQuestion(TypeMultipleChoice, "q", []string{"a", "b"}, 2, ""); !errors.Is(err, ErrCorrectIndexOutOfRange) {
		t.Fatalf("expected out of range error, got %v", err)
	}
	if _, err := NewChoiceQuestion(TypeTextInput, "q", []string{"a"}, 0, ""); !errors.Is(err, ErrUnknownQuestionType) {
		t.Fatalf("expected type error, got %v", err)
	}
	q, err := NewChoiceQuestion(TypeImage, "q", []string{"a"}, 0, "img.jpg")
	if err != nil {
		t.Fatalf("new image: %v", err)
	}
	m, ok := q.(Media)
	if !ok || m.Ref() != "img.jpg" || m.Type() != TypeImage {
		t.Fatalf("expected image media question, got %#v", q)
	}
}

func TestParseQuestionType(t *testing.T) {
	for _, qt := range QuestionTypes {
		got, err := ParseQuestionType(string(qt))
		if err != nil || got != qt {
			t.Fatalf("parse %q: %v %v", qt, got, err)
		}
	}
	if _, err := ParseQuestionType("video"); !errors.Is(err, ErrUnknownQuestionType) {
		t.Fatalf("expected unknown type, got %v", err)
	}
}
