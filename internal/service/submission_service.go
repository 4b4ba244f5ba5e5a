package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edulane/edulane-backend/internal/config"
	"github.com/edulane/edulane-backend/internal/grading"
	"github.com/edulane/edulane-backend/internal/model"
	"github.com/edulane/edulane-backend/internal/repository"
)

// SubmissionService orchestrates finalization of exam attempts. Both
// the student's explicit submit and the auto-submit triggers funnel
// through the same transactional check-then-set on the terminal flag,
// so a live disconnect handler racing an HTTP submit can never
// double-finalize.
type SubmissionService struct {
	pool         *pgxpool.Pool
	attemptRepo  *repository.AttemptRepository
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	answerRepo   *repository.AnswerRepository
	resultRepo   *repository.ResultRepository
	rdb          *redis.Client
	issuer       CertificateIssuer
	log          zerolog.Logger
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	pool *pgxpool.Pool,
	attemptRepo *repository.AttemptRepository,
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	answerRepo *repository.AnswerRepository,
	resultRepo *repository.ResultRepository,
	rdb *redis.Client,
	issuer CertificateIssuer,
	log zerolog.Logger,
) *SubmissionService {
	return &SubmissionService{
		pool:         pool,
		attemptRepo:  attemptRepo,
		examRepo:     examRepo,
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
		resultRepo:   resultRepo,
		rdb:          rdb,
		issuer:       issuer,
		log:          log.With().Str("component", "submission_service").Logger(),
	}
}

// SaveAnswer upserts one answer before submission (incremental
// autosave, any number of times). MCQ answers are graded immediately;
// descriptive grading is deferred to finalization. The status check and
// the upsert share a transaction holding the attempt row lock, so a
// save racing a finalizer cannot land an answer row after the result
// was frozen: whichever grabs the lock first wins, and a save ordered
// after the terminal transition sees submitted and rolls back.
func (s *SubmissionService) SaveAnswer(ctx context.Context, examID uuid.UUID, studentID int, req *model.SaveAnswerRequest) error {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrExamNotAvailable
		}
		return fmt.Errorf("load exam: %w", err)
	}

	question, err := s.questionRepo.GetByID(ctx, req.QuestionID)
	if err != nil || question.ExamID != examID {
		return ErrInvalidQuestion
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	attempt, err := s.attemptRepo.GetForUpdateTx(ctx, tx, examID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAttemptNotFound
		}
		return fmt.Errorf("lock attempt: %w", err)
	}
	if attempt.Status == model.AttemptStatusSubmitted {
		return ErrAlreadySubmitted
	}

	now, err := s.attemptRepo.NowTx(ctx, tx)
	if err != nil {
		return fmt.Errorf("read clock: %w", err)
	}
	if attempt.Expired(now, exam.Grace()) {
		return ErrWindowClosed
	}

	answer := buildAnswer(examID, studentID, question, req.SelectedOption, req.AnswerText)
	if err := s.answerRepo.UpsertTx(ctx, tx, answer); err != nil {
		return fmt.Errorf("store answer: %w", err)
	}
	return tx.Commit(ctx)
}

// SubmitExam runs the full submission pipeline in one transaction:
// re-read status under the row lock, enforce the deadline on the
// database clock, replace prior answers (last write wins), grade,
// aggregate, write the result, and flip the attempt to submitted.
// Any failure rolls the whole thing back — no partial credit persists.
func (s *SubmissionService) SubmitExam(ctx context.Context, examID uuid.UUID, studentID int, submitted []model.SubmittedAnswer) (*model.SubmitExamResponse, error) {
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

	attempt, err := s.attemptRepo.GetForUpdateTx(ctx, tx, examID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("lock attempt: %w", err)
	}
	if attempt.Status == model.AttemptStatusSubmitted {
		return nil, ErrAlreadySubmitted
	}

	now, err := s.attemptRepo.NowTx(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("read clock: %w", err)
	}
	if attempt.Expired(now, exam.Grace()) {
		return nil, ErrWindowClosed
	}

	questions, err := s.questionRepo.ListByExamTx(ctx, tx, examID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	byID := make(map[uuid.UUID]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	// Foreign question references are detected here, before any write,
	// so they can be skipped without aborting the submission.
	valid := make([]model.SubmittedAnswer, 0, len(submitted))
	for _, sa := range submitted {
		if _, ok := byID[sa.QuestionID]; !ok {
			s.log.Warn().
				Str("exam_id", examID.String()).
				Int("student_id", studentID).
				Str("question_id", sa.QuestionID.String()).
				Msg("Skipping answer for question outside this exam")
			continue
		}
		valid = append(valid, sa)
	}

	// Clean resubmission: prior autosaved rows are replaced wholesale.
	if err := s.answerRepo.DeleteByExamAndStudentTx(ctx, tx, examID, studentID); err != nil {
		return nil, fmt.Errorf("clear answers: %w", err)
	}

	scores := make(map[string]float64, len(valid))
	for _, sa := range valid {
		q := byID[sa.QuestionID]
		answer := buildAnswer(examID, studentID, q, sa.SelectedOption, sa.AnswerText)
		marks := grading.Score(q, sa.SelectedOption, sa.AnswerText)
		answer.MarksObtained = &marks
		if err := s.answerRepo.UpsertTx(ctx, tx, answer); err != nil {
			return nil, fmt.Errorf("store answer: %w", err)
		}
		scores[q.ID.String()] = marks
	}

	summary := grading.Aggregate(questions, scores, exam.PassPercentage)

	if err := s.resultRepo.UpsertTx(ctx, tx, &model.Result{
		ExamID:        examID,
		StudentID:     studentID,
		TotalMarks:    summary.TotalMarks,
		ObtainedMarks: summary.ObtainedMarks,
		Percentage:    summary.Percentage,
		Passed:        summary.Passed,
	}); err != nil {
		return nil, fmt.Errorf("store result: %w", err)
	}

	if err := s.attemptRepo.SubmitTx(ctx, tx, examID, studentID); err != nil {
		return nil, fmt.Errorf("finalize attempt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.clearBuffers(ctx, examID, studentID)

	issued := s.maybeIssueCertificate(ctx, exam, studentID, summary)

	s.log.Info().
		Str("exam_id", examID.String()).
		Int("student_id", studentID).
		Int("percentage", summary.Percentage).
		Bool("passed", summary.Passed).
		Msg("Exam submitted")

	return &model.SubmitExamResponse{
		TotalMarks:        summary.TotalMarks,
		ObtainedMarks:     summary.ObtainedMarks,
		Percentage:        summary.Percentage,
		Passed:            summary.Passed,
		CertificateIssued: issued,
	}, nil
}

// AutoSubmitExam finalizes an expired attempt using whatever answers
// incremental autosave already persisted. Idempotent: missing or
// already-submitted attempts are a no-op. Returns true when this call
// performed the terminal transition.
func (s *SubmissionService) AutoSubmitExam(ctx context.Context, examID uuid.UUID, studentID int) (bool, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("load exam: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	attempt, err := s.attemptRepo.GetForUpdateTx(ctx, tx, examID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lock attempt: %w", err)
	}
	if attempt.Status == model.AttemptStatusSubmitted {
		// The other trigger won the race. Success, not an error.
		return false, nil
	}

	questions, err := s.questionRepo.ListByExamTx(ctx, tx, examID)
	if err != nil {
		return false, fmt.Errorf("load questions: %w", err)
	}
	byID := make(map[uuid.UUID]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	answers, err := s.answerRepo.ListByExamAndStudentTx(ctx, tx, examID, studentID)
	if err != nil {
		return false, fmt.Errorf("load answers: %w", err)
	}

	scores := make(map[string]float64, len(answers))
	for i := range answers {
		a := &answers[i]
		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}

		if a.MarksObtained != nil {
			// Already graded at save time (MCQ path).
			scores[q.ID.String()] = *a.MarksObtained
			continue
		}

		// Descriptive answers from autosave are graded now.
		var selected, text string
		if a.SelectedOption != nil {
			selected = *a.SelectedOption
		}
		if a.AnswerText != nil {
			text = *a.AnswerText
		}
		marks := grading.Score(q, selected, text)
		if err := s.answerRepo.UpdateMarksTx(ctx, tx, a.ID, marks); err != nil {
			return false, fmt.Errorf("grade answer: %w", err)
		}
		scores[q.ID.String()] = marks
	}

	summary := grading.Aggregate(questions, scores, exam.PassPercentage)

	if err := s.resultRepo.UpsertTx(ctx, tx, &model.Result{
		ExamID:        examID,
		StudentID:     studentID,
		TotalMarks:    summary.TotalMarks,
		ObtainedMarks: summary.ObtainedMarks,
		Percentage:    summary.Percentage,
		Passed:        summary.Passed,
	}); err != nil {
		return false, fmt.Errorf("store result: %w", err)
	}

	if err := s.attemptRepo.SubmitTx(ctx, tx, examID, studentID); err != nil {
		return false, fmt.Errorf("finalize attempt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}

	s.clearBuffers(ctx, examID, studentID)
	s.maybeIssueCertificate(ctx, exam, studentID, summary)

	s.log.Info().
		Str("exam_id", examID.String()).
		Int("student_id", studentID).
		Int("percentage", summary.Percentage).
		Msg("Exam auto-submitted")

	return true, nil
}

// maybeIssueCertificate requests issuance after a passing submission,
// unless the exam contains coding questions (those need manual
// evaluation first). Best-effort: errors are logged, never surfaced.
func (s *SubmissionService) maybeIssueCertificate(ctx context.Context, exam *model.Exam, studentID int, summary grading.Summary) bool {
	if !summary.Passed {
		return false
	}

	codingCount, err := s.questionRepo.CountByType(ctx, exam.ID, model.QuestionTypeCoding)
	if err != nil {
		s.log.Error().Err(err).Str("exam_id", exam.ID.String()).Msg("Coding question check failed")
		return false
	}
	if codingCount > 0 {
		return false
	}

	issued, err := s.issuer.Issue(ctx, studentID, exam.ID, summary.Percentage)
	if err != nil {
		s.log.Error().Err(err).
			Str("exam_id", exam.ID.String()).
			Int("student_id", studentID).
			Msg("Certificate issuance failed")
		return false
	}
	return issued
}

// clearBuffers drops the Redis autosave buffer and cached window after
// finalization. Best-effort.
func (s *SubmissionService) clearBuffers(ctx context.Context, examID uuid.UUID, studentID int) {
	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.StudentAnswersKey(examID.String(), studentID))
	pipe.Del(ctx, config.CacheKey.AttemptWindowKey(examID.String(), studentID))
	_, _ = pipe.Exec(ctx)
}

func buildAnswer(examID uuid.UUID, studentID int, q *model.Question, selectedOption, answerText string) *model.Answer {
	a := &model.Answer{
		ExamID:     examID,
		StudentID:  studentID,
		QuestionID: q.ID,
	}
	switch q.QuestionType {
	case model.QuestionTypeMCQ:
		if selectedOption != "" {
			a.SelectedOption = &selectedOption
		}
		marks := grading.ScoreMCQ(q, selectedOption)
		a.MarksObtained = &marks
	default:
		if answerText != "" {
			a.AnswerText = &answerText
		}
	}
	return a
}
