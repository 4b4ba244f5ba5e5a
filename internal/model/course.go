package model

import (
	"time"

	"github.com/google/uuid"
)

// Course groups exams and controls enrollment-based access. An exam
// linked to a course is only visible to enrolled students.
type Course struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Enrollment links a student to a course.
type Enrollment struct {
	CourseID  uuid.UUID `json:"course_id"`
	StudentID int       `json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}
