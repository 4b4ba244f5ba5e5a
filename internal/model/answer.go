package model

import (
	"time"

	"github.com/google/uuid"
)

// Answer holds a student's response to one question. One row per
// (exam, student, question), upserted until submission. MarksObtained
// is set at save time for MCQ and at finalize time for descriptive.
type Answer struct {
	ID             uuid.UUID  `json:"id"`
	ExamID         uuid.UUID  `json:"exam_id"`
	StudentID      int        `json:"student_id"`
	QuestionID     uuid.UUID  `json:"question_id"`
	SelectedOption *string    `json:"selected_option,omitempty"`
	AnswerText     *string    `json:"answer_text,omitempty"`
	MarksObtained  *float64   `json:"marks_obtained,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// SaveAnswerRequest is the payload for the incremental autosave endpoint.
type SaveAnswerRequest struct {
	QuestionID     uuid.UUID `json:"question_id" binding:"required"`
	SelectedOption string    `json:"selected_option" binding:"omitempty,max=10"`
	AnswerText     string    `json:"answer_text" binding:"omitempty,max=20000"`
}

// SubmittedAnswer is one answer within a final submission.
type SubmittedAnswer struct {
	QuestionID     uuid.UUID `json:"question_id" binding:"required"`
	SelectedOption string    `json:"selected_option" binding:"omitempty,max=10"`
	AnswerText     string    `json:"answer_text" binding:"omitempty,max=20000"`
}

// SubmitExamRequest is the payload for the final submission endpoint.
type SubmitExamRequest struct {
	Answers []SubmittedAnswer `json:"answers" binding:"dive"`
}
