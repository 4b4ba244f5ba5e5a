package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates exam attempt states. SUBMITTED is terminal.
type AttemptStatus string

const (
	AttemptStatusNotStarted AttemptStatus = "not_started"
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusSubmitted  AttemptStatus = "submitted"
)

// ExamAttempt is the single durable record of a student's exam session.
// One row per (exam, student), enforced by a unique constraint.
// EndTime is fixed at creation; only an explicit rewrite resets it.
// DisconnectedAt is an orthogonal flag on in_progress, not a state.
type ExamAttempt struct {
	ID             uuid.UUID     `json:"id"`
	ExamID         uuid.UUID     `json:"exam_id"`
	StudentID      int           `json:"student_id"`
	Status         AttemptStatus `json:"status"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	DisconnectedAt *time.Time    `json:"disconnected_at,omitempty"`
	SubmittedAt    *time.Time    `json:"submitted_at,omitempty"`
}

// Deadline returns the last instant at which mutations are accepted:
// the scheduled end plus the exam's disconnect grace.
func (a *ExamAttempt) Deadline(grace time.Duration) time.Time {
	return a.EndTime.Add(grace)
}

// Expired reports whether the attempt's deadline has passed at the
// given instant. now must come from the database clock, never from a
// client or a process-local timer.
func (a *ExamAttempt) Expired(now time.Time, grace time.Duration) bool {
	return now.After(a.Deadline(grace))
}

// DisconnectExpired reports whether the attempt has been disconnected
// for longer than the grace window. Only meaningful while the
// disconnect marker is set; a connected attempt never disconnect-expires.
func (a *ExamAttempt) DisconnectExpired(now time.Time, grace time.Duration) bool {
	if a.DisconnectedAt == nil {
		return false
	}
	return now.After(a.DisconnectedAt.Add(grace))
}

// Abandoned reports whether the attempt must be force-finalized: either
// the submission deadline passed, or the student stayed disconnected
// beyond the grace window.
func (a *ExamAttempt) Abandoned(now time.Time, grace time.Duration) bool {
	return a.Expired(now, grace) || a.DisconnectExpired(now, grace)
}

// AttemptWindow is the server-authoritative time window returned to
// clients. ServerTime lets the client compute remaining time without
// trusting its own clock.
type AttemptWindow struct {
	Status     AttemptStatus `json:"status"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	ServerTime time.Time     `json:"server_time"`
}

// AttemptStatusResponse is returned by the attempt status endpoint.
type AttemptStatusResponse struct {
	Status      AttemptStatus `json:"status"`
	StartTime   *time.Time    `json:"start_time,omitempty"`
	EndTime     *time.Time    `json:"end_time,omitempty"`
	SubmittedAt *time.Time    `json:"submitted_at,omitempty"`
	ServerTime  time.Time     `json:"server_time"`
}
