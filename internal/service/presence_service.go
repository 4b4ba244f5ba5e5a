package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/edulane/edulane-backend/internal/repository"
)

// AutoSubmitNotice reports an attempt that was force-finalized during
// presence reconciliation so the transport layer can notify the client.
type AutoSubmitNotice struct {
	ExamID uuid.UUID `json:"exam_id"`
}

// presenceStore is the slice of the attempt repository that presence
// reconciliation touches.
type presenceStore interface {
	ListActiveByStudent(ctx context.Context, studentID int) ([]repository.ActiveAttempt, error)
	ClearDisconnected(ctx context.Context, examID uuid.UUID, studentID int) error
	MarkDisconnected(ctx context.Context, examID uuid.UUID, studentID int) error
}

// attemptFinalizer force-finalizes an expired attempt. Satisfied by
// SubmissionService.
type attemptFinalizer interface {
	AutoSubmitExam(ctx context.Context, examID uuid.UUID, studentID int) (bool, error)
}

// PresenceService reconciles WebSocket connect/disconnect events
// against in-progress attempts. It marks disconnects, clears the
// marker on reconnect within the grace period, and force-finalizes
// attempts whose window or disconnect grace has lapsed. The periodic
// sweep covers the same ground for students who never come back.
type PresenceService struct {
	attemptRepo presenceStore
	submissions attemptFinalizer
	log         zerolog.Logger
}

// NewPresenceService creates a new PresenceService.
func NewPresenceService(attemptRepo presenceStore, submissions attemptFinalizer, log zerolog.Logger) *PresenceService {
	return &PresenceService{
		attemptRepo: attemptRepo,
		submissions: submissions,
		log:         log.With().Str("component", "presence_service").Logger(),
	}
}

// ReconcileConnect runs when a student's socket comes up. Attempts
// whose grace already lapsed are auto-submitted; the rest get their
// disconnect marker cleared so the grace timer stops.
func (s *PresenceService) ReconcileConnect(ctx context.Context, studentID int) ([]AutoSubmitNotice, error) {
	active, err := s.attemptRepo.ListActiveByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list active attempts: %w", err)
	}

	var notices []AutoSubmitNotice
	for _, a := range active {
		if a.Abandoned(a.ServerNow, a.Grace()) {
			submitted, err := s.submissions.AutoSubmitExam(ctx, a.ExamID, studentID)
			if err != nil {
				s.log.Error().Err(err).
					Str("exam_id", a.ExamID.String()).
					Int("student_id", studentID).
					Msg("Auto-submit on reconnect failed")
				continue
			}
			if submitted {
				notices = append(notices, AutoSubmitNotice{ExamID: a.ExamID})
			}
			continue
		}

		if a.DisconnectedAt != nil {
			if err := s.attemptRepo.ClearDisconnected(ctx, a.ExamID, studentID); err != nil {
				s.log.Error().Err(err).
					Str("exam_id", a.ExamID.String()).
					Int("student_id", studentID).
					Msg("Clearing disconnect marker failed")
				continue
			}
			s.log.Info().
				Str("exam_id", a.ExamID.String()).
				Int("student_id", studentID).
				Msg("Student reconnected within grace")
		}
	}

	return notices, nil
}

// ReconcileDisconnect runs when a student's socket drops. Attempts
// already past their window are finalized immediately; the rest are
// stamped with disconnected_at so the grace timer starts. The stamp
// only lands if no earlier disconnect is pending, keeping the original
// grace deadline.
func (s *PresenceService) ReconcileDisconnect(ctx context.Context, studentID int) error {
	active, err := s.attemptRepo.ListActiveByStudent(ctx, studentID)
	if err != nil {
		return fmt.Errorf("list active attempts: %w", err)
	}

	for _, a := range active {
		if a.Abandoned(a.ServerNow, a.Grace()) {
			if _, err := s.submissions.AutoSubmitExam(ctx, a.ExamID, studentID); err != nil {
				s.log.Error().Err(err).
					Str("exam_id", a.ExamID.String()).
					Int("student_id", studentID).
					Msg("Auto-submit on disconnect failed")
			}
			continue
		}

		if err := s.attemptRepo.MarkDisconnected(ctx, a.ExamID, studentID); err != nil {
			s.log.Error().Err(err).
				Str("exam_id", a.ExamID.String()).
				Int("student_id", studentID).
				Msg("Marking disconnect failed")
			continue
		}
		s.log.Info().
			Str("exam_id", a.ExamID.String()).
			Int("student_id", studentID).
			Msg("Student disconnected, grace timer started")
	}

	return nil
}
