package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edulane/edulane-backend/internal/model"
)

// AnswerRepository handles answer data access. One row per
// (exam, student, question), upserted until the attempt is finalized.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// ListByExamAndStudentTx reads all stored answers for an attempt inside
// the finalization transaction, so the aggregate sees exactly the
// committed answers.
func (r *AnswerRepository) ListByExamAndStudentTx(ctx context.Context, tx pgx.Tx, examID uuid.UUID, studentID int) ([]model.Answer, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, exam_id, student_id, question_id, selected_option, answer_text, marks_obtained, updated_at
		 FROM answers
		 WHERE exam_id = $1 AND student_id = $2`, examID, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAnswers(rows)
}

// UpsertTx writes one graded answer inside the submission transaction.
func (r *AnswerRepository) UpsertTx(ctx context.Context, tx pgx.Tx, a *model.Answer) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO answers (exam_id, student_id, question_id, selected_option, answer_text, marks_obtained)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (exam_id, student_id, question_id) DO UPDATE
		 SET selected_option = EXCLUDED.selected_option,
		     answer_text = EXCLUDED.answer_text,
		     marks_obtained = EXCLUDED.marks_obtained,
		     updated_at = NOW()`,
		a.ExamID, a.StudentID, a.QuestionID, a.SelectedOption, a.AnswerText, a.MarksObtained)
	return err
}

// UpdateMarksTx sets the grade on an already-stored answer. Used when
// descriptive answers saved via autosave are graded at finalize time.
func (r *AnswerRepository) UpdateMarksTx(ctx context.Context, tx pgx.Tx, answerID uuid.UUID, marks float64) error {
	_, err := tx.Exec(ctx,
		`UPDATE answers SET marks_obtained = $1, updated_at = NOW() WHERE id = $2`,
		marks, answerID)
	return err
}

// DeleteByExamAndStudentTx removes all answers for an attempt. Used by
// full submission (clean resubmission, last write wins) and by rewrite.
func (r *AnswerRepository) DeleteByExamAndStudentTx(ctx context.Context, tx pgx.Tx, examID uuid.UUID, studentID int) error {
	_, err := tx.Exec(ctx,
		`DELETE FROM answers WHERE exam_id = $1 AND student_id = $2`, examID, studentID)
	return err
}

func scanAnswers(rows pgx.Rows) ([]model.Answer, error) {
	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.ExamID, &a.StudentID, &a.QuestionID, &a.SelectedOption, &a.AnswerText, &a.MarksObtained, &a.UpdatedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
