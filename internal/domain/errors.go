package domain

import "errors"

var (
	// ErrSubjectNotFound is returned when a subject is absent from the questions document.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrUnknownQuestionType indicates a question type outside the four known variants.
	ErrUnknownQuestionType = errors.New("unknown question type")
	// ErrInvalidQuestion indicates a question whose fields violate its variant's rules.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrCorrectIndexOutOfRange indicates a correct index that is not a position in the options.
	ErrCorrectIndexOutOfRange = errors.New("correct index out of range")
	// ErrEmptyOptions is returned when an options submission contains nothing.
	ErrEmptyOptions = errors.New("options list is empty")
	// ErrPermissionDenied is returned when a non-administrator attempts an authoring step.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrUnknownCollection indicates a collection name outside questions/users/results.
	ErrUnknownCollection = errors.New("unknown collection")
)
