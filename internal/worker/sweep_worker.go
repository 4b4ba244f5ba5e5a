package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/edulane/edulane-backend/internal/repository"
	"github.com/edulane/edulane-backend/internal/service"
	"github.com/edulane/edulane-backend/internal/websocket"
)

// sweepBatchSize caps how many expired attempts one tick finalizes.
const sweepBatchSize = 100

// SweepWorker periodically finalizes in_progress attempts whose window
// or disconnect grace has lapsed. It is the safety net behind the
// presence layer: a student whose socket never reconnects still gets
// auto-submitted within one sweep interval.
type SweepWorker struct {
	attemptRepo *repository.AttemptRepository
	submissions *service.SubmissionService
	hub         *websocket.Hub
	interval    time.Duration
	log         zerolog.Logger
}

// NewSweepWorker creates a new SweepWorker.
func NewSweepWorker(
	attemptRepo *repository.AttemptRepository,
	submissions *service.SubmissionService,
	hub *websocket.Hub,
	interval time.Duration,
	log zerolog.Logger,
) *SweepWorker {
	return &SweepWorker{
		attemptRepo: attemptRepo,
		submissions: submissions,
		hub:         hub,
		interval:    interval,
		log:         log.With().Str("component", "sweep_worker").Logger(),
	}
}

// Start begins the sweep loop. Call in a goroutine.
func (w *SweepWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *SweepWorker) sweep(ctx context.Context) {
	expired, err := w.attemptRepo.ListExpired(ctx, sweepBatchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("Listing expired attempts failed")
		return
	}

	for _, a := range expired {
		submitted, err := w.submissions.AutoSubmitExam(ctx, a.ExamID, a.StudentID)
		if err != nil {
			w.log.Error().Err(err).
				Str("exam_id", a.ExamID.String()).
				Int("student_id", a.StudentID).
				Msg("Sweep auto-submit failed")
			continue
		}
		if submitted {
			w.hub.NotifyAutoSubmitted(a.StudentID, a.ExamID.String())
		}
	}

	if len(expired) > 0 {
		w.log.Info().Int("count", len(expired)).Msg("Sweep pass finished")
	}
}
