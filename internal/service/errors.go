package service

import "errors"

// Attempt lifecycle errors. Handlers map these onto response codes;
// internal callers (auto-submit paths) use errors.Is to treat
// ErrAlreadySubmitted as a benign no-op.
var (
	ErrExamNotAvailable = errors.New("exam is not available")
	ErrNotEnrolled      = errors.New("student is not enrolled in the exam's course")
	ErrAttemptNotFound  = errors.New("no attempt exists for this exam and student")
	ErrAlreadySubmitted = errors.New("attempt has already been submitted")
	ErrWindowClosed     = errors.New("submission window has closed")
	ErrInvalidQuestion  = errors.New("answer references a question outside this exam")
)

// Exam lifecycle errors.
var (
	ErrExamNotDraft       = errors.New("exam is not in draft status")
	ErrExamNotPublished   = errors.New("exam is not published")
	ErrNoQuestions        = errors.New("exam has no questions")
	ErrInvalidQuestionSet = errors.New("invalid question set")
)
