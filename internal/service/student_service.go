package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/edulane/edulane-backend/internal/model"
	"github.com/edulane/edulane-backend/internal/repository"
)

// ErrStudentNotFound is returned when a student lookup misses.
var ErrStudentNotFound = errors.New("student not found")

// StudentService handles student accounts: login and admin-side CRUD.
type StudentService struct {
	studentRepo *repository.StudentRepository
	auth        *AuthService
	log         zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(studentRepo *repository.StudentRepository, auth *AuthService, log zerolog.Logger) *StudentService {
	return &StudentService{
		studentRepo: studentRepo,
		auth:        auth,
		log:         log.With().Str("component", "student_service").Logger(),
	}
}

// Login authenticates a student and returns a single-device token.
// A second login while a session is active fails with
// ErrSessionAlreadyActive until an admin resets the session.
func (s *StudentService) Login(ctx context.Context, req *model.StudentLoginRequest) (*model.StudentLoginResponse, error) {
	student, err := s.studentRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load student: %w", err)
	}

	if err := s.auth.CheckPassword(student.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	token, err := s.auth.GenerateStudentToken(ctx, student.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int("student_id", student.ID).Msg("Student logged in")
	return &model.StudentLoginResponse{Token: token, Student: *student}, nil
}

// Create registers a new student account.
func (s *StudentService) Create(ctx context.Context, req *model.CreateStudentRequest) (*model.Student, error) {
	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	student := &model.Student{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
	}
	if err := s.studentRepo.Create(ctx, student); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	return student, nil
}

// Get retrieves a student by ID.
func (s *StudentService) Get(ctx context.Context, id int) (*model.Student, error) {
	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("load student: %w", err)
	}
	return student, nil
}

// Update modifies a student account. An empty password keeps the old one.
func (s *StudentService) Update(ctx context.Context, id int, req *model.UpdateStudentRequest) (*model.Student, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	student.Email = req.Email
	student.Name = req.Name
	student.PasswordHash = ""
	if req.Password != "" {
		hash, err := s.auth.HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		student.PasswordHash = hash
	}

	if err := s.studentRepo.Update(ctx, student); err != nil {
		return nil, fmt.Errorf("update student: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes a student account and drops their active session.
func (s *StudentService) Delete(ctx context.Context, id int) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.studentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return s.auth.ResetStudentSession(ctx, id)
}

// List retrieves students, paginated.
func (s *StudentService) List(ctx context.Context, page, perPage int) ([]model.Student, int64, error) {
	return s.studentRepo.List(ctx, page, perPage)
}

// ResetSession clears a student's login session so they can sign in
// from a new device.
func (s *StudentService) ResetSession(ctx context.Context, id int) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int("student_id", id).Msg("Student session reset")
	return s.auth.ResetStudentSession(ctx, id)
}
