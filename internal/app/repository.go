package app

import (
	"context"
	"io"

	"exam-bot/internal/domain"
)

// Repository is the persisted side of the bot: questions, users and results.
type Repository interface {
	Subject(ctx context.Context, subject string) (domain.QuestionList, error)
	AppendQuestion(ctx context.Context, subject string, q domain.Question) (int, error)
	RegisterUser(ctx context.Context, userID int64, profile domain.UserProfile) (bool, error)
	AppendResult(ctx context.Context, userID int64, rec domain.ResultRecord) (domain.ResultRecord, error)
	Results(ctx context.Context, userID int64) ([]domain.ResultRecord, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

// BlobStore keeps uploaded media and hands back a reference path.
type BlobStore interface {
	Put(ctx context.Context, kind MediaKind, fileID string, r io.Reader) (string, error)
	Exists(ref string) bool
}

// SubjectInfo is a subject offered in the menus.
type SubjectInfo struct {
	Name  string
	Title string
}

// Catalog is the ordered list of subjects shown to users and the administrator.
type Catalog []SubjectInfo

// Title returns the configured display title of name.
func (c Catalog) Title(name string) string {
	for _, s := range c {
		if s.Name == name && s.Title != "" {
			return s.Title
		}
	}
	return domain.SubjectTitle(name)
}

// Names lists the subject names in menu order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for _, s := range c {
		names = append(names, s.Name)
	}
	return names
}
