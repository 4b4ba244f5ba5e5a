package model

import (
	"time"

	"github.com/google/uuid"
)

// Result holds the final score for one (exam, student) pair. Written
// only during finalization, exactly once per submitted attempt.
type Result struct {
	ID            uuid.UUID `json:"id"`
	ExamID        uuid.UUID `json:"exam_id"`
	StudentID     int       `json:"student_id"`
	TotalMarks    float64   `json:"total_marks"`
	ObtainedMarks float64   `json:"obtained_marks"`
	Percentage    int       `json:"percentage"`
	Passed        bool      `json:"passed"`
	EvaluatedAt   time.Time `json:"evaluated_at"`
}

// SubmitExamResponse is returned after a successful submission.
type SubmitExamResponse struct {
	TotalMarks        float64 `json:"total_marks"`
	ObtainedMarks     float64 `json:"obtained_marks"`
	Percentage        int     `json:"percentage"`
	Passed            bool    `json:"passed"`
	CertificateIssued bool    `json:"certificate_issued"`
}
