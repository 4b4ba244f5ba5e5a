package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/edulane/edulane-backend/internal/model"
	"github.com/edulane/edulane-backend/internal/repository"
)

// ErrCourseNotFound is returned when a course lookup misses.
var ErrCourseNotFound = errors.New("course not found")

// CourseService handles courses and enrollment.
type CourseService struct {
	courseRepo  *repository.CourseRepository
	studentRepo *repository.StudentRepository
	log         zerolog.Logger
}

// NewCourseService creates a new CourseService.
func NewCourseService(courseRepo *repository.CourseRepository, studentRepo *repository.StudentRepository, log zerolog.Logger) *CourseService {
	return &CourseService{
		courseRepo:  courseRepo,
		studentRepo: studentRepo,
		log:         log.With().Str("component", "course_service").Logger(),
	}
}

// Create creates a new course.
func (s *CourseService) Create(ctx context.Context, title, description string) (*model.Course, error) {
	course := &model.Course{Title: title, Description: description}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	return course, nil
}

// Get retrieves a course by ID.
func (s *CourseService) Get(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("load course: %w", err)
	}
	return course, nil
}

// List retrieves all courses.
func (s *CourseService) List(ctx context.Context) ([]model.Course, error) {
	return s.courseRepo.List(ctx)
}

// Enroll links a student to a course. Repeated enrollment is a no-op.
func (s *CourseService) Enroll(ctx context.Context, courseID uuid.UUID, studentID int) error {
	if _, err := s.Get(ctx, courseID); err != nil {
		return err
	}
	if _, err := s.studentRepo.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("load student: %w", err)
	}
	return s.courseRepo.Enroll(ctx, courseID, studentID)
}

// Unenroll removes a student from a course.
func (s *CourseService) Unenroll(ctx context.Context, courseID uuid.UUID, studentID int) error {
	return s.courseRepo.Unenroll(ctx, courseID, studentID)
}
