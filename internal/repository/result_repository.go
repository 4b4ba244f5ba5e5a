package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edulane/edulane-backend/internal/model"
)

// ExamResultRow combines student data with their result for listings.
type ExamResultRow struct {
	StudentID     int        `json:"student_id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	TotalMarks    float64    `json:"total_marks"`
	ObtainedMarks float64    `json:"obtained_marks"`
	Percentage    int        `json:"percentage"`
	Passed        bool       `json:"passed"`
	EvaluatedAt   *time.Time `json:"evaluated_at"`
}

// ResultRepository handles result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// GetByExamAndStudent retrieves a student's result for an exam.
func (r *ResultRepository) GetByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.Result, error) {
	res := &model.Result{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, student_id, total_marks, obtained_marks, percentage, passed, evaluated_at
		 FROM results
		 WHERE exam_id = $1 AND student_id = $2`, examID, studentID,
	).Scan(&res.ID, &res.ExamID, &res.StudentID, &res.TotalMarks, &res.ObtainedMarks, &res.Percentage, &res.Passed, &res.EvaluatedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// UpsertTx writes the result inside the finalization transaction.
// The unique constraint on (exam_id, student_id) plus the attempt row
// lock guarantee exactly one evaluated result per submitted attempt.
func (r *ResultRepository) UpsertTx(ctx context.Context, tx pgx.Tx, res *model.Result) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO results (exam_id, student_id, total_marks, obtained_marks, percentage, passed, evaluated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 ON CONFLICT (exam_id, student_id) DO UPDATE
		 SET total_marks = EXCLUDED.total_marks,
		     obtained_marks = EXCLUDED.obtained_marks,
		     percentage = EXCLUDED.percentage,
		     passed = EXCLUDED.passed,
		     evaluated_at = NOW()`,
		res.ExamID, res.StudentID, res.TotalMarks, res.ObtainedMarks, res.Percentage, res.Passed)
	return err
}

// DeleteByExamAndStudentTx removes a result during rewrite.
func (r *ResultRepository) DeleteByExamAndStudentTx(ctx context.Context, tx pgx.Tx, examID uuid.UUID, studentID int) error {
	_, err := tx.Exec(ctx,
		`DELETE FROM results WHERE exam_id = $1 AND student_id = $2`, examID, studentID)
	return err
}

// ListByExam retrieves all student results for an exam, paginated.
func (r *ResultRepository) ListByExam(ctx context.Context, examID uuid.UUID, page, perPage int) ([]ExamResultRow, int64, error) {
	offset := (page - 1) * perPage

	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM results WHERE exam_id = $1`, examID,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.name, s.email, res.total_marks, res.obtained_marks, res.percentage, res.passed, res.evaluated_at
		 FROM results res
		 JOIN students s ON res.student_id = s.id
		 WHERE res.exam_id = $1
		 ORDER BY s.name ASC
		 LIMIT $2 OFFSET $3`, examID, perPage, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []ExamResultRow
	for rows.Next() {
		var row ExamResultRow
		if err := rows.Scan(&row.StudentID, &row.Name, &row.Email, &row.TotalMarks, &row.ObtainedMarks, &row.Percentage, &row.Passed, &row.EvaluatedAt); err != nil {
			return nil, 0, err
		}
		results = append(results, row)
	}

	return results, total, rows.Err()
}
