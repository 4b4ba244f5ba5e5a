package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edulane/edulane-backend/internal/config"
	"github.com/edulane/edulane-backend/internal/model"
	"github.com/edulane/edulane-backend/internal/repository"
)

// examPaperTTL bounds staleness of the cached student-facing paper.
// The cache is also invalidated explicitly on question changes and
// status transitions.
const examPaperTTL = time.Hour

// ExamService handles exam authoring and the draft/published/archived
// lifecycle. Questions are editable only in DRAFT; once published, the
// paper is frozen and cached for students.
type ExamService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	resultRepo   *repository.ResultRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	resultRepo *repository.ResultRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		resultRepo:   resultRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "exam_service").Logger(),
	}
}

// Create creates a new exam in DRAFT status.
func (s *ExamService) Create(ctx context.Context, req *model.CreateExamRequest) (*model.Exam, error) {
	exam := &model.Exam{
		Title:                  req.Title,
		CourseID:               req.CourseID,
		DurationMinutes:        req.DurationMinutes,
		PassPercentage:         req.PassPercentage,
		DisconnectGraceSeconds: req.DisconnectGraceSeconds,
		Status:                 model.ExamStatusDraft,
	}
	if err := s.examRepo.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}
	return exam, nil
}

// Get retrieves an exam by ID.
func (s *ExamService) Get(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotAvailable
		}
		return nil, fmt.Errorf("load exam: %w", err)
	}
	return exam, nil
}

// List retrieves all exams for the admin console.
func (s *ExamService) List(ctx context.Context) ([]model.Exam, error) {
	return s.examRepo.List(ctx)
}

// Update modifies a DRAFT exam. Published exams are frozen so the
// window parameters of running attempts never shift under students.
func (s *ExamService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusDraft {
		return nil, ErrExamNotDraft
	}

	if req.Title != "" {
		exam.Title = req.Title
	}
	if req.CourseID != nil {
		exam.CourseID = req.CourseID
	}
	if req.DurationMinutes != nil {
		exam.DurationMinutes = *req.DurationMinutes
	}
	if req.PassPercentage != nil {
		exam.PassPercentage = *req.PassPercentage
	}
	if req.DisconnectGraceSeconds != nil {
		exam.DisconnectGraceSeconds = *req.DisconnectGraceSeconds
	}

	if err := s.examRepo.Update(ctx, exam); err != nil {
		return nil, fmt.Errorf("update exam: %w", err)
	}
	return exam, nil
}

// Delete removes a DRAFT exam and its questions.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID) error {
	exam, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if exam.Status != model.ExamStatusDraft {
		return ErrExamNotDraft
	}
	if err := s.examRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	return nil
}

// Publish validates the question set and moves a DRAFT exam to
// PUBLISHED, then warms the paper cache.
func (s *ExamService) Publish(ctx context.Context, id uuid.UUID) error {
	exam, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if exam.Status != model.ExamStatusDraft {
		return ErrExamNotDraft
	}

	questions, err := s.questionRepo.ListByExam(ctx, id)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}
	if err := validateQuestions(questions); err != nil {
		return err
	}

	if err := s.examRepo.SetStatus(ctx, id, model.ExamStatusPublished); err != nil {
		return fmt.Errorf("publish exam: %w", err)
	}

	s.cachePaper(ctx, exam, questions)

	s.log.Info().
		Str("exam_id", id.String()).
		Int("questions", len(questions)).
		Msg("Exam published")
	return nil
}

// Archive moves a PUBLISHED exam out of student visibility. Running
// attempts keep their window and finalize normally.
func (s *ExamService) Archive(ctx context.Context, id uuid.UUID) error {
	exam, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if exam.Status != model.ExamStatusPublished {
		return ErrExamNotPublished
	}
	if err := s.examRepo.SetStatus(ctx, id, model.ExamStatusArchived); err != nil {
		return fmt.Errorf("archive exam: %w", err)
	}
	s.rdb.Del(ctx, config.CacheKey.ExamPaperKey(id.String()))
	return nil
}

// ReplaceQuestions swaps the full question set of a DRAFT exam.
func (s *ExamService) ReplaceQuestions(ctx context.Context, examID uuid.UUID, req *model.ReplaceQuestionsRequest) ([]model.Question, error) {
	exam, err := s.Get(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusDraft {
		return nil, ErrExamNotDraft
	}

	questions := make([]model.Question, 0, len(req.Questions))
	for i, q := range req.Questions {
		orderNum := q.OrderNum
		if orderNum == 0 {
			orderNum = i + 1
		}
		questions = append(questions, model.Question{
			ExamID:        examID,
			QuestionText:  q.QuestionText,
			QuestionType:  model.QuestionType(q.QuestionType),
			Marks:         q.Marks,
			Options:       q.Options,
			CorrectOption: q.CorrectOption,
			Keywords:      q.Keywords,
			MinWordCount:  q.MinWordCount,
			TestCases:     q.TestCases,
			OrderNum:      orderNum,
		})
	}
	if err := validateQuestions(questions); err != nil {
		return nil, err
	}

	if err := s.questionRepo.ReplaceForExam(ctx, examID, questions); err != nil {
		return nil, fmt.Errorf("replace questions: %w", err)
	}

	s.rdb.Del(ctx, config.CacheKey.ExamPaperKey(examID.String()))
	return questions, nil
}

// ListQuestions retrieves the full question set, grading material
// included, for the admin console.
func (s *ExamService) ListQuestions(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	if _, err := s.Get(ctx, examID); err != nil {
		return nil, err
	}
	return s.questionRepo.ListByExam(ctx, examID)
}

// GetPaper returns the student-facing paper for a published exam,
// served from Redis when warm.
func (s *ExamService) GetPaper(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, error) {
	key := config.CacheKey.ExamPaperKey(examID.String())

	cached, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		paper := &model.ExamPaper{}
		if err := json.Unmarshal(cached, paper); err == nil {
			return paper, nil
		}
		// Poisoned entry; fall through to rebuild.
		s.rdb.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Paper cache read failed")
	}

	exam, err := s.Get(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, ErrExamNotAvailable
	}

	questions, err := s.questionRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	return s.cachePaper(ctx, exam, questions), nil
}

// ListResults retrieves paginated student results for an exam.
func (s *ExamService) ListResults(ctx context.Context, examID uuid.UUID, page, perPage int) ([]repository.ExamResultRow, int64, error) {
	if _, err := s.Get(ctx, examID); err != nil {
		return nil, 0, err
	}
	return s.resultRepo.ListByExam(ctx, examID, page, perPage)
}

func (s *ExamService) cachePaper(ctx context.Context, exam *model.Exam, questions []model.Question) *model.ExamPaper {
	paper := &model.ExamPaper{
		ExamID:          exam.ID,
		Title:           exam.Title,
		DurationMinutes: exam.DurationMinutes,
		Questions:       make([]model.QuestionForStudent, 0, len(questions)),
	}
	for i := range questions {
		paper.Questions = append(paper.Questions, questions[i].ForStudent())
	}

	if payload, err := json.Marshal(paper); err == nil {
		if err := s.rdb.Set(ctx, config.CacheKey.ExamPaperKey(exam.ID.String()), payload, examPaperTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Paper cache write failed")
		}
	}

	return paper
}

// validateQuestions checks that each question carries the payload its
// type needs for grading.
func validateQuestions(questions []model.Question) error {
	for i := range questions {
		q := &questions[i]
		switch q.QuestionType {
		case model.QuestionTypeMCQ:
			if len(q.Options) == 0 {
				return fmt.Errorf("%w: question %d has no options", ErrInvalidQuestionSet, i+1)
			}
			if q.CorrectOption == "" {
				return fmt.Errorf("%w: question %d has no correct option", ErrInvalidQuestionSet, i+1)
			}
		case model.QuestionTypeDescriptive:
			if len(q.Keywords) == 0 {
				return fmt.Errorf("%w: question %d has no keywords", ErrInvalidQuestionSet, i+1)
			}
		case model.QuestionTypeCoding:
			// Scored zero pending manual review; no payload required.
		default:
			return fmt.Errorf("%w: question %d has unknown type %q", ErrInvalidQuestionSet, i+1, q.QuestionType)
		}
	}
	return nil
}
