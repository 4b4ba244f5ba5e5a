package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edulane/edulane-backend/internal/config"
	"github.com/edulane/edulane-backend/internal/model"
	"github.com/edulane/edulane-backend/internal/service"
)

// AutosaveWorker consumes persist_answers_queue and persists buffered
// WebSocket answers through the submission pipeline, which grades MCQ
// answers and enforces the attempt window on the database clock.
type AutosaveWorker struct {
	submissions *service.SubmissionService
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewAutosaveWorker creates a new AutosaveWorker.
func NewAutosaveWorker(submissions *service.SubmissionService, rdb *redis.Client, log zerolog.Logger) *AutosaveWorker {
	return &AutosaveWorker{
		submissions: submissions,
		rdb:         rdb,
		log:         log.With().Str("component", "autosave_worker").Logger(),
	}
}

// AnswerPayload is the queue entry format shared with the WS handler.
type AnswerPayload struct {
	StudentID      int    `json:"student_id"`
	ExamID         string `json:"exam_id"`
	QID            string `json:"q_id"`
	SelectedOption string `json:"selected_option,omitempty"`
	AnswerText     string `json:"answer_text,omitempty"`
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *AutosaveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *AutosaveWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistAnswersQueue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	if err := w.persist(ctx, []byte(result[1])); err != nil {
		w.log.Error().Err(err).Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

// persist writes one buffered answer to PostgreSQL. Lifecycle
// rejections (window closed, already submitted) mean the answer can
// never land and are dropped, not retried.
func (w *AutosaveWorker) persist(ctx context.Context, raw []byte) error {
	var p AnswerPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error, dropping item")
		return nil
	}

	examID, err := uuid.Parse(p.ExamID)
	if err != nil {
		w.log.Error().Str("exam_id", p.ExamID).Msg("Bad exam ID, dropping item")
		return nil
	}
	questionID, err := uuid.Parse(p.QID)
	if err != nil {
		w.log.Error().Str("q_id", p.QID).Msg("Bad question ID, dropping item")
		return nil
	}

	err = w.submissions.SaveAnswer(ctx, examID, p.StudentID, &model.SaveAnswerRequest{
		QuestionID:     questionID,
		SelectedOption: p.SelectedOption,
		AnswerText:     p.AnswerText,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWindowClosed),
			errors.Is(err, service.ErrAlreadySubmitted),
			errors.Is(err, service.ErrAttemptNotFound),
			errors.Is(err, service.ErrExamNotAvailable),
			errors.Is(err, service.ErrInvalidQuestion):
			w.log.Debug().Err(err).
				Int("student_id", p.StudentID).
				Str("exam_id", p.ExamID).
				Msg("Buffered answer rejected, dropping")
			return nil
		default:
			return err
		}
	}
	return nil
}

// drain processes all remaining items in the queue before shutdown.
func (w *AutosaveWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistAnswersQueue).Result()
		if err != nil {
			break
		}

		if err := w.persist(ctx, []byte(result)); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
