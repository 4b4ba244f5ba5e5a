package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edulane/edulane-backend/internal/model"
)

// AttemptRepository handles exam attempt data access. The attempt row
// for one (exam, student) pair is the unit of mutual exclusion: every
// terminal transition re-reads status under a row lock first.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, exam_id, student_id, status, start_time, end_time, disconnected_at, submitted_at`

func scanAttempt(row pgx.Row) (*model.ExamAttempt, error) {
	a := &model.ExamAttempt{}
	err := row.Scan(&a.ID, &a.ExamID, &a.StudentID, &a.Status, &a.StartTime, &a.EndTime, &a.DisconnectedAt, &a.SubmittedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Now returns the database server's clock. All deadline comparisons use
// this, never the application host's clock.
func (r *AttemptRepository) Now(ctx context.Context) (time.Time, error) {
	var now time.Time
	err := r.pool.QueryRow(ctx, `SELECT NOW()`).Scan(&now)
	return now, err
}

// GetByExamAndStudent retrieves the attempt for an exam-student pair.
func (r *AttemptRepository) GetByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamAttempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+`
		 FROM exam_attempts
		 WHERE exam_id = $1 AND student_id = $2`, examID, studentID,
	))
}

// CreateIfAbsent inserts a new in_progress attempt with the window
// computed from the database clock. Returns pgx.ErrNoRows when an
// attempt already exists (the unique constraint absorbed the insert),
// which callers treat as "resume the existing row".
func (r *AttemptRepository) CreateIfAbsent(ctx context.Context, examID uuid.UUID, studentID, durationMinutes int) (*model.ExamAttempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`INSERT INTO exam_attempts (exam_id, student_id, status, start_time, end_time)
		 VALUES ($1, $2, $3, NOW(), NOW() + make_interval(mins => $4))
		 ON CONFLICT (exam_id, student_id) DO NOTHING
		 RETURNING `+attemptColumns,
		examID, studentID, model.AttemptStatusInProgress, durationMinutes,
	))
}

// ClearDisconnected removes the disconnect marker after a reconnect
// within grace. A no-op on submitted attempts.
func (r *AttemptRepository) ClearDisconnected(ctx context.Context, examID uuid.UUID, studentID int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_attempts
		 SET disconnected_at = NULL
		 WHERE exam_id = $1 AND student_id = $2 AND status = $3`,
		examID, studentID, model.AttemptStatusInProgress)
	return err
}

// MarkDisconnected stamps disconnected_at with the database clock on a
// live attempt that isn't already marked.
func (r *AttemptRepository) MarkDisconnected(ctx context.Context, examID uuid.UUID, studentID int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_attempts
		 SET disconnected_at = NOW()
		 WHERE exam_id = $1 AND student_id = $2 AND status = $3 AND disconnected_at IS NULL`,
		examID, studentID, model.AttemptStatusInProgress)
	return err
}

// ActiveAttempt pairs an in_progress attempt with the grace window of
// its exam and the database clock at read time, so the caller can do
// deadline math without a second round trip.
type ActiveAttempt struct {
	model.ExamAttempt
	GraceSeconds int
	ServerNow    time.Time
}

// Grace returns the exam's disconnect grace window as a duration.
func (a ActiveAttempt) Grace() time.Duration {
	return time.Duration(a.GraceSeconds) * time.Second
}

// ListActiveByStudent retrieves all in_progress attempts for a student,
// joined with each exam's disconnect grace.
func (r *AttemptRepository) ListActiveByStudent(ctx context.Context, studentID int) ([]ActiveAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.exam_id, a.student_id, a.status, a.start_time, a.end_time,
		        a.disconnected_at, a.submitted_at, e.disconnect_grace_seconds, NOW()
		 FROM exam_attempts a
		 JOIN exams e ON a.exam_id = e.id
		 WHERE a.student_id = $1 AND a.status = $2`,
		studentID, model.AttemptStatusInProgress,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []ActiveAttempt
	for rows.Next() {
		var a ActiveAttempt
		if err := rows.Scan(
			&a.ID, &a.ExamID, &a.StudentID, &a.Status, &a.StartTime, &a.EndTime,
			&a.DisconnectedAt, &a.SubmittedAt, &a.GraceSeconds, &a.ServerNow,
		); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// ListExpired returns in_progress attempts past their deadline on the
// database clock, either because end_time + grace has passed or because
// a pending disconnect outlived its grace. Used by the sweep worker as
// the safety net for abandoned sessions.
func (r *AttemptRepository) ListExpired(ctx context.Context, limit int) ([]ActiveAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.exam_id, a.student_id, a.status, a.start_time, a.end_time,
		        a.disconnected_at, a.submitted_at, e.disconnect_grace_seconds, NOW()
		 FROM exam_attempts a
		 JOIN exams e ON a.exam_id = e.id
		 WHERE a.status = $1
		   AND (NOW() > a.end_time + make_interval(secs => e.disconnect_grace_seconds)
		        OR (a.disconnected_at IS NOT NULL
		            AND NOW() > a.disconnected_at + make_interval(secs => e.disconnect_grace_seconds)))
		 LIMIT $2`,
		model.AttemptStatusInProgress, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []ActiveAttempt
	for rows.Next() {
		var a ActiveAttempt
		if err := rows.Scan(
			&a.ID, &a.ExamID, &a.StudentID, &a.Status, &a.StartTime, &a.EndTime,
			&a.DisconnectedAt, &a.SubmittedAt, &a.GraceSeconds, &a.ServerNow,
		); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// ─── Transactional variants ─────────────────────────────────────────
//
// Finalization must re-check status under a row lock inside the same
// transaction that writes the terminal transition; these helpers take
// an open pgx.Tx for that purpose.

// GetForUpdateTx loads the attempt with FOR UPDATE, blocking concurrent
// finalizers on the same (exam, student) row until commit.
func (r *AttemptRepository) GetForUpdateTx(ctx context.Context, tx pgx.Tx, examID uuid.UUID, studentID int) (*model.ExamAttempt, error) {
	return scanAttempt(tx.QueryRow(ctx,
		`SELECT `+attemptColumns+`
		 FROM exam_attempts
		 WHERE exam_id = $1 AND student_id = $2
		 FOR UPDATE`, examID, studentID,
	))
}

// NowTx reads the database clock within the transaction.
func (r *AttemptRepository) NowTx(ctx context.Context, tx pgx.Tx) (time.Time, error) {
	var now time.Time
	err := tx.QueryRow(ctx, `SELECT NOW()`).Scan(&now)
	return now, err
}

// SubmitTx writes the terminal transition: status submitted, stamped
// submitted_at, disconnect marker cleared. The caller has already
// verified status != submitted under the row lock.
func (r *AttemptRepository) SubmitTx(ctx context.Context, tx pgx.Tx, examID uuid.UUID, studentID int) error {
	_, err := tx.Exec(ctx,
		`UPDATE exam_attempts
		 SET status = $1, submitted_at = NOW(), disconnected_at = NULL
		 WHERE exam_id = $2 AND student_id = $3`,
		model.AttemptStatusSubmitted, examID, studentID)
	return err
}

// RewriteTx resets the attempt window from the database clock for a
// privileged retake. Prior answers and result rows are removed by the
// caller in the same transaction.
func (r *AttemptRepository) RewriteTx(ctx context.Context, tx pgx.Tx, examID uuid.UUID, studentID, durationMinutes int) (*model.ExamAttempt, error) {
	return scanAttempt(tx.QueryRow(ctx,
		`UPDATE exam_attempts
		 SET status = $1,
		     start_time = NOW(),
		     end_time = NOW() + make_interval(mins => $2),
		     disconnected_at = NULL,
		     submitted_at = NULL
		 WHERE exam_id = $3 AND student_id = $4
		 RETURNING `+attemptColumns,
		model.AttemptStatusInProgress, durationMinutes, examID, studentID,
	))
}
