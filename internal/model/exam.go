package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the possible states of an exam.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "DRAFT"
	ExamStatusPublished ExamStatus = "PUBLISHED"
	ExamStatusArchived  ExamStatus = "ARCHIVED"
)

// Exam represents an exam entity. The duration, pass threshold, and
// disconnect grace are fixed for the lifetime of any attempt against it.
type Exam struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	CourseID        *uuid.UUID `json:"course_id,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	PassPercentage  int        `json:"pass_percentage"`
	// DisconnectGraceSeconds extends the submission deadline after the
	// scheduled end, covering network drops near the end of the window.
	DisconnectGraceSeconds int        `json:"disconnect_grace_seconds"`
	Status                 ExamStatus `json:"status"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// Grace returns the exam's disconnect grace as a duration.
func (e *Exam) Grace() time.Duration {
	return time.Duration(e.DisconnectGraceSeconds) * time.Second
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title                  string     `json:"title" binding:"required,min=3,max=255"`
	CourseID               *uuid.UUID `json:"course_id" binding:"omitempty"`
	DurationMinutes        int        `json:"duration_minutes" binding:"required,min=1,max=480"`
	PassPercentage         int        `json:"pass_percentage" binding:"min=0,max=100"`
	DisconnectGraceSeconds int        `json:"disconnect_grace_seconds" binding:"min=0,max=3600"`
}

// UpdateExamRequest is the payload for updating an existing exam.
type UpdateExamRequest struct {
	Title                  string     `json:"title" binding:"omitempty,min=3,max=255"`
	CourseID               *uuid.UUID `json:"course_id" binding:"omitempty"`
	DurationMinutes        *int       `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	PassPercentage         *int       `json:"pass_percentage" binding:"omitempty,min=0,max=100"`
	DisconnectGraceSeconds *int       `json:"disconnect_grace_seconds" binding:"omitempty,min=0,max=3600"`
}

// ExamPaper is the student-facing exam payload (no correct answers,
// no keywords). Cached in Redis once the exam is published.
type ExamPaper struct {
	ExamID          uuid.UUID            `json:"exam_id"`
	Title           string               `json:"title"`
	DurationMinutes int                  `json:"duration_minutes"`
	Questions       []QuestionForStudent `json:"questions"`
}
