package domain

import (
	"strconv"
	"strings"
	"time"
)

// Collection names one of the three persisted documents.
type Collection string

const (
	CollectionQuestions Collection = "questions"
	CollectionUsers     Collection = "users"
	CollectionResults   Collection = "results"
)

// Collections lists every persisted collection.
var Collections = []Collection{CollectionQuestions, CollectionUsers, CollectionResults}

// Valid reports whether c is one of the known collections.
func (c Collection) Valid() bool {
	for _, known := range Collections {
		if c == known {
			return true
		}
	}
	return false
}

// DefaultSubjects is the skeleton written on first boot when no subjects are configured.
var DefaultSubjects = []string{"ingliz_tili", "koreys_tili", "avto_test"}

// QuestionBank maps a subject name to its questions in insertion order.
type QuestionBank map[string]QuestionList

// UserDirectory maps a user id to the profile captured on first contact.
type UserDirectory map[string]UserProfile

// ResultLog maps a user id to the results of every finished test, oldest first.
type ResultLog map[string][]ResultRecord

// UserProfile is written once when a user first starts the bot.
type UserProfile struct {
	Name       string    `json:"name"`
	Username   string    `json:"username,omitempty"`
	Registered time.Time `json:"registered"`
}

// ResultRecord is the outcome of one finished test.
type ResultRecord struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Percentage float64   `json:"percentage"`
	Date       time.Time `json:"date"`
}

// AnswerRecord captures a single answered question within a session. Given holds the
// option index for choice questions and the normalized text for text input.
type AnswerRecord struct {
	QuestionIndex int
	Given         string
	Correct       bool
}

// Stats summarizes the persisted collections for the administrator.
type Stats struct {
	Users          int
	CompletedTests int
	Subjects       []SubjectCount
}

// SubjectCount is the number of questions authored for one subject.
type SubjectCount struct {
	Subject string
	Count   int
}

// UserKey renders a numeric user id as a document key.
func UserKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// Percentage returns score/total*100, or 0 when total is 0.
func Percentage(score, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(score) / float64(total) * 100
}

// Remark bands a percentage into a qualitative verdict.
type Remark string

const (
	RemarkExcellent    Remark = "excellent"
	RemarkGood         Remark = "good"
	RemarkPracticeMore Remark = "practice more"
)

// RemarkFor bands at 80% and 60%.
func RemarkFor(percentage float64) Remark {
	switch {
	case percentage >= 80:
		return RemarkExcellent
	case percentage >= 60:
		return RemarkGood
	default:
		return RemarkPracticeMore
	}
}

// NormalizeAnswer trims and lower-cases free text before comparison.
func NormalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// OptionLabel returns the letter shown next to option i: A..Z, then AA, AB and so on.
func OptionLabel(i int) string {
	if i < 0 {
		return ""
	}
	var label []byte
	for n := i + 1; n > 0; n = (n - 1) / 26 {
		label = append([]byte{byte('A' + (n-1)%26)}, label...)
	}
	return string(label)
}

// SubjectTitle renders a subject name for display when no title is configured.
func SubjectTitle(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}
