package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"exam-bot/internal/domain"
	"github.com/google/uuid"
)

func (s *Store) LoadQuestions(ctx context.Context) (domain.QuestionBank, error) {
	bank := domain.QuestionBank{}
	if err := read(ctx, s, domain.CollectionQuestions, &bank); err != nil {
		return nil, err
	}
	if bank == nil {
		bank = domain.QuestionBank{}
	}
	return bank, nil
}

func (s *Store) SaveQuestions(ctx context.Context, bank domain.QuestionBank) error {
	data, err := encode(bank)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	return s.Save(ctx, domain.CollectionQuestions, data)
}

func (s *Store) LoadUsers(ctx context.Context) (domain.UserDirectory, error) {
	users := domain.UserDirectory{}
	if err := read(ctx, s, domain.CollectionUsers, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = domain.UserDirectory{}
	}
	return users, nil
}

func (s *Store) SaveUsers(ctx context.Context, users domain.UserDirectory) error {
	data, err := encode(users)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	return s.Save(ctx, domain.CollectionUsers, data)
}

func (s *Store) LoadResults(ctx context.Context) (domain.ResultLog, error) {
	results := domain.ResultLog{}
	if err := read(ctx, s, domain.CollectionResults, &results); err != nil {
		return nil, err
	}
	if results == nil {
		results = domain.ResultLog{}
	}
	return results, nil
}

func (s *Store) SaveResults(ctx context.Context, results domain.ResultLog) error {
	data, err := encode(results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return s.Save(ctx, domain.CollectionResults, data)
}

// Bootstrap writes an empty question list for every subject missing from the
// questions document, creating the document itself on first boot.
func (s *Store) Bootstrap(ctx context.Context, subjects []string) error {
	var bank domain.QuestionBank
	var added bool
	err := update(ctx, s, domain.CollectionQuestions, &bank, func() error {
		if bank == nil {
			bank = domain.QuestionBank{}
			added = true
		}
		for _, subject := range subjects {
			if _, ok := bank[subject]; !ok {
				bank[subject] = domain.QuestionList{}
				added = true
			}
		}
		if !added {
			return errUnchanged
		}
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return nil
	}
	return err
}

// Subject returns the questions of one subject in insertion order.
func (s *Store) Subject(ctx context.Context, subject string) (domain.QuestionList, error) {
	bank, err := s.LoadQuestions(ctx)
	if err != nil {
		return nil, err
	}
	questions, ok := bank[subject]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrSubjectNotFound, subject)
	}
	return questions, nil
}

// AppendQuestion adds q to the end of subject and returns the subject's new size.
// A subject absent from the document is created.
func (s *Store) AppendQuestion(ctx context.Context, subject string, q domain.Question) (int, error) {
	var bank domain.QuestionBank
	var count int
	err := update(ctx, s, domain.CollectionQuestions, &bank, func() error {
		if bank == nil {
			bank = domain.QuestionBank{}
		}
		bank[subject] = append(bank[subject], q)
		count = len(bank[subject])
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// RegisterUser stores profile under userID unless the user is already known.
func (s *Store) RegisterUser(ctx context.Context, userID int64, profile domain.UserProfile) (bool, error) {
	var users domain.UserDirectory
	key := domain.UserKey(userID)
	err := update(ctx, s, domain.CollectionUsers, &users, func() error {
		if _, ok := users[key]; ok {
			return errUnchanged
		}
		if users == nil {
			users = domain.UserDirectory{}
		}
		if profile.Registered.IsZero() {
			profile.Registered = time.Now()
		}
		users[key] = profile
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AppendResult records a finished test for userID, assigning an id if rec has none.
func (s *Store) AppendResult(ctx context.Context, userID int64, rec domain.ResultRecord) (domain.ResultRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Date.IsZero() {
		rec.Date = time.Now()
	}
	var results domain.ResultLog
	key := domain.UserKey(userID)
	err := update(ctx, s, domain.CollectionResults, &results, func() error {
		if results == nil {
			results = domain.ResultLog{}
		}
		results[key] = append(results[key], rec)
		return nil
	})
	if err != nil {
		return domain.ResultRecord{}, err
	}
	return rec, nil
}

// Results returns every result recorded for userID, oldest first.
func (s *Store) Results(ctx context.Context, userID int64) ([]domain.ResultRecord, error) {
	results, err := s.LoadResults(ctx)
	if err != nil {
		return nil, err
	}
	return results[domain.UserKey(userID)], nil
}

// Stats counts users, finished tests and questions per subject (sorted by name).
func (s *Store) Stats(ctx context.Context) (domain.Stats, error) {
	users, err := s.LoadUsers(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	results, err := s.LoadResults(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	bank, err := s.LoadQuestions(ctx)
	if err != nil {
		return domain.Stats{}, err
	}

	stats := domain.Stats{Users: len(users)}
	for _, recs := range results {
		stats.CompletedTests += len(recs)
	}
	for subject, questions := range bank {
		stats.Subjects = append(stats.Subjects, domain.SubjectCount{Subject: subject, Count: len(questions)})
	}
	sort.Slice(stats.Subjects, func(i, j int) bool {
		return stats.Subjects[i].Subject < stats.Subjects[j].Subject
	})
	return stats, nil
}
