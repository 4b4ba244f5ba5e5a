package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edulane/edulane-backend/internal/model"
)

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

const examColumns = `id, title, course_id, duration_minutes, pass_percentage, disconnect_grace_seconds, status, created_at, updated_at`

// GetByID retrieves an exam by its ID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.Title, &e.CourseID, &e.DurationMinutes, &e.PassPercentage, &e.DisconnectGraceSeconds, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Create inserts a new exam in DRAFT status.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (title, course_id, duration_minutes, pass_percentage, disconnect_grace_seconds, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		e.Title, e.CourseID, e.DurationMinutes, e.PassPercentage, e.DisconnectGraceSeconds, model.ExamStatusDraft,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// Update saves exam fields. Immutable while attempts exist is enforced
// at the service layer via the DRAFT-status check.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams
		 SET title = $1, course_id = $2, duration_minutes = $3, pass_percentage = $4,
		     disconnect_grace_seconds = $5, updated_at = NOW()
		 WHERE id = $6`,
		e.Title, e.CourseID, e.DurationMinutes, e.PassPercentage, e.DisconnectGraceSeconds, e.ID)
	return err
}

// SetStatus moves an exam between lifecycle states.
func (r *ExamRepository) SetStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	return err
}

// Delete removes an exam. Fails on attempts referencing it (FK).
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	return err
}

// List retrieves all exams, newest first.
func (r *ExamRepository) List(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.CourseID, &e.DurationMinutes, &e.PassPercentage, &e.DisconnectGraceSeconds, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// ListVisibleToStudent retrieves published exams the student may take:
// exams with no course linkage, plus exams of courses the student is
// enrolled in.
func (r *ExamRepository) ListVisibleToStudent(ctx context.Context, studentID int) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+`
		 FROM exams e
		 WHERE e.status = $1
		   AND (e.course_id IS NULL
		        OR EXISTS (SELECT 1 FROM enrollments en
		                   WHERE en.course_id = e.course_id AND en.student_id = $2))
		 ORDER BY e.created_at DESC`,
		model.ExamStatusPublished, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.CourseID, &e.DurationMinutes, &e.PassPercentage, &e.DisconnectGraceSeconds, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// IsStudentEnrolled reports whether the student is enrolled in the
// given course.
func (r *ExamRepository) IsStudentEnrolled(ctx context.Context, courseID uuid.UUID, studentID int) (bool, error) {
	var enrolled bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE course_id = $1 AND student_id = $2)`,
		courseID, studentID,
	).Scan(&enrolled)
	return enrolled, err
}
