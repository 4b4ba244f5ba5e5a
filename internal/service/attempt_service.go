package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edulane/edulane-backend/internal/config"
	"github.com/edulane/edulane-backend/internal/model"
	"github.com/edulane/edulane-backend/internal/repository"
)

// AttemptService handles the attempt window lifecycle: starting,
// resuming, status queries, and privileged rewrites. The window is
// computed once from the database clock and never silently extended.
type AttemptService struct {
	pool        *pgxpool.Pool
	attemptRepo *repository.AttemptRepository
	examRepo    *repository.ExamRepository
	answerRepo  *repository.AnswerRepository
	resultRepo  *repository.ResultRepository
	submissions *SubmissionService
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	pool *pgxpool.Pool,
	attemptRepo *repository.AttemptRepository,
	examRepo *repository.ExamRepository,
	answerRepo *repository.AnswerRepository,
	resultRepo *repository.ResultRepository,
	submissions *SubmissionService,
	rdb *redis.Client,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		pool:        pool,
		attemptRepo: attemptRepo,
		examRepo:    examRepo,
		answerRepo:  answerRepo,
		resultRepo:  resultRepo,
		submissions: submissions,
		rdb:         rdb,
		log:         log.With().Str("component", "attempt_service").Logger(),
	}
}

// StartOrResume creates the attempt on first call and returns the
// unchanged window on every later call while in progress. The response
// carries the server clock so clients compute remaining time without
// trusting their own.
func (s *AttemptService) StartOrResume(ctx context.Context, examID uuid.UUID, studentID int) (*model.AttemptWindow, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotAvailable
		}
		return nil, fmt.Errorf("load exam: %w", err)
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, ErrExamNotAvailable
	}

	if exam.CourseID != nil {
		enrolled, err := s.examRepo.IsStudentEnrolled(ctx, *exam.CourseID, studentID)
		if err != nil {
			return nil, fmt.Errorf("check enrollment: %w", err)
		}
		if !enrolled {
			return nil, ErrNotEnrolled
		}
	}

	attempt, err := s.attemptRepo.GetByExamAndStudent(ctx, examID, studentID)
	if errors.Is(err, pgx.ErrNoRows) {
		attempt, err = s.attemptRepo.CreateIfAbsent(ctx, examID, studentID, exam.DurationMinutes)
		if errors.Is(err, pgx.ErrNoRows) {
			// Concurrent start on another device; the constraint
			// absorbed our insert. Resume the winner's row.
			attempt, err = s.attemptRepo.GetByExamAndStudent(ctx, examID, studentID)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load or create attempt: %w", err)
	}

	if attempt.Status == model.AttemptStatusSubmitted {
		return nil, ErrAlreadySubmitted
	}

	now, err := s.attemptRepo.Now(ctx)
	if err != nil {
		return nil, fmt.Errorf("read clock: %w", err)
	}

	if attempt.Abandoned(now, exam.Grace()) {
		// The window is already over; finalize with whatever was
		// autosaved instead of handing out a dead window.
		if _, err := s.submissions.AutoSubmitExam(ctx, examID, studentID); err != nil {
			return nil, fmt.Errorf("auto-submit expired attempt: %w", err)
		}
		return nil, ErrAlreadySubmitted
	}

	if attempt.DisconnectedAt != nil {
		if err := s.attemptRepo.ClearDisconnected(ctx, examID, studentID); err != nil {
			return nil, fmt.Errorf("clear disconnect marker: %w", err)
		}
	}

	s.cacheWindow(ctx, attempt, exam.Grace())

	return &model.AttemptWindow{
		Status:     attempt.Status,
		StartTime:  attempt.StartTime,
		EndTime:    attempt.EndTime,
		ServerTime: now,
	}, nil
}

// GetStatus returns the attempt state plus the server clock. A missing
// row reads as not_started — the client has simply never loaded the
// exam.
func (s *AttemptService) GetStatus(ctx context.Context, examID uuid.UUID, studentID int) (*model.AttemptStatusResponse, error) {
	now, err := s.attemptRepo.Now(ctx)
	if err != nil {
		return nil, fmt.Errorf("read clock: %w", err)
	}

	attempt, err := s.attemptRepo.GetByExamAndStudent(ctx, examID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.AttemptStatusResponse{
				Status:     model.AttemptStatusNotStarted,
				ServerTime: now,
			}, nil
		}
		return nil, fmt.Errorf("load attempt: %w", err)
	}

	return &model.AttemptStatusResponse{
		Status:      attempt.Status,
		StartTime:   &attempt.StartTime,
		EndTime:     &attempt.EndTime,
		SubmittedAt: attempt.SubmittedAt,
		ServerTime:  now,
	}, nil
}

// Rewrite resets the attempt for a privileged retake: prior answers
// and result are removed, the window restarts from the database clock.
// This is the only operation allowed to change end_time.
func (s *AttemptService) Rewrite(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamAttempt, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotAvailable
		}
		return nil, fmt.Errorf("load exam: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.attemptRepo.GetForUpdateTx(ctx, tx, examID, studentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("lock attempt: %w", err)
	}

	if err := s.answerRepo.DeleteByExamAndStudentTx(ctx, tx, examID, studentID); err != nil {
		return nil, fmt.Errorf("clear answers: %w", err)
	}
	if err := s.resultRepo.DeleteByExamAndStudentTx(ctx, tx, examID, studentID); err != nil {
		return nil, fmt.Errorf("clear result: %w", err)
	}

	attempt, err := s.attemptRepo.RewriteTx(ctx, tx, examID, studentID, exam.DurationMinutes)
	if err != nil {
		return nil, fmt.Errorf("rewrite attempt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.rdb.Del(ctx, config.CacheKey.StudentAnswersKey(examID.String(), studentID))
	s.cacheWindow(ctx, attempt, exam.Grace())

	s.log.Info().
		Str("exam_id", examID.String()).
		Int("student_id", studentID).
		Time("new_end_time", attempt.EndTime).
		Msg("Attempt rewritten")

	return attempt, nil
}

// LobbyExam is an exam as shown in the student lobby, overlaid with
// the student's own attempt state.
type LobbyExam struct {
	model.Exam
	AttemptStatus model.AttemptStatus `json:"attempt_status"`
	Percentage    *int                `json:"percentage,omitempty"`
	Passed        *bool               `json:"passed,omitempty"`
}

// GetLobby returns the published exams visible to a student with their
// attempt status and, when finalized, the result.
func (s *AttemptService) GetLobby(ctx context.Context, studentID int) ([]LobbyExam, error) {
	exams, err := s.examRepo.ListVisibleToStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}

	lobby := make([]LobbyExam, 0, len(exams))
	for i := range exams {
		entry := LobbyExam{Exam: exams[i], AttemptStatus: model.AttemptStatusNotStarted}

		attempt, err := s.attemptRepo.GetByExamAndStudent(ctx, exams[i].ID, studentID)
		if err == nil {
			entry.AttemptStatus = attempt.Status
			if attempt.Status == model.AttemptStatusSubmitted {
				if res, err := s.resultRepo.GetByExamAndStudent(ctx, exams[i].ID, studentID); err == nil {
					entry.Percentage = &res.Percentage
					entry.Passed = &res.Passed
				}
			}
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("load attempt: %w", err)
		}

		lobby = append(lobby, entry)
	}

	return lobby, nil
}

// cacheWindow stores the attempt window in Redis so hot paths (the
// WebSocket autosave precheck) can reject late writes without a
// database round trip. The row stays the source of truth.
func (s *AttemptService) cacheWindow(ctx context.Context, attempt *model.ExamAttempt, grace time.Duration) {
	key := config.CacheKey.AttemptWindowKey(attempt.ExamID.String(), attempt.StudentID)
	ttl := time.Until(attempt.Deadline(grace)) + time.Minute
	if ttl <= 0 {
		return
	}
	if err := s.rdb.Set(ctx, key, attempt.Deadline(grace).Unix(), ttl).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Window cache write failed")
	}
}
