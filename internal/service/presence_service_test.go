package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/edulane/edulane-backend/internal/model"
	"github.com/edulane/edulane-backend/internal/repository"
)

type fakePresenceStore struct {
	active  []repository.ActiveAttempt
	cleared []uuid.UUID
	marked  []uuid.UUID
}

func (f *fakePresenceStore) ListActiveByStudent(_ context.Context, _ int) ([]repository.ActiveAttempt, error) {
	return f.active, nil
}

func (f *fakePresenceStore) ClearDisconnected(_ context.Context, examID uuid.UUID, _ int) error {
	f.cleared = append(f.cleared, examID)
	return nil
}

func (f *fakePresenceStore) MarkDisconnected(_ context.Context, examID uuid.UUID, _ int) error {
	f.marked = append(f.marked, examID)
	return nil
}

type fakeFinalizer struct {
	submitted  []uuid.UUID
	transition bool
}

func (f *fakeFinalizer) AutoSubmitExam(_ context.Context, examID uuid.UUID, _ int) (bool, error) {
	f.submitted = append(f.submitted, examID)
	return f.transition, nil
}

// liveAttempt builds an in_progress attempt with a 30 minute window and
// a 2 minute grace, observed at the given server time.
func liveAttempt(disconnectedAt *time.Time, serverNow time.Time) repository.ActiveAttempt {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return repository.ActiveAttempt{
		ExamAttempt: model.ExamAttempt{
			ID:             uuid.New(),
			ExamID:         uuid.New(),
			StudentID:      1,
			Status:         model.AttemptStatusInProgress,
			StartTime:      start,
			EndTime:        start.Add(30 * time.Minute),
			DisconnectedAt: disconnectedAt,
		},
		GraceSeconds: 120,
		ServerNow:    serverNow,
	}
}

func TestReconcileConnectWithinGraceClearsMarker(t *testing.T) {
	disconnected := time.Date(2026, 3, 1, 9, 10, 0, 0, time.UTC)
	// One second before the disconnect grace lapses.
	attempt := liveAttempt(&disconnected, disconnected.Add(2*time.Minute-time.Second))

	store := &fakePresenceStore{active: []repository.ActiveAttempt{attempt}}
	finalizer := &fakeFinalizer{}
	svc := NewPresenceService(store, finalizer, zerolog.Nop())

	notices, err := svc.ReconcileConnect(context.Background(), 1)
	if err != nil {
		t.Fatalf("ReconcileConnect: %v", err)
	}

	if len(store.cleared) != 1 || store.cleared[0] != attempt.ExamID {
		t.Errorf("cleared = %v, want [%s]", store.cleared, attempt.ExamID)
	}
	if len(finalizer.submitted) != 0 {
		t.Errorf("no auto-submit expected, got %v", finalizer.submitted)
	}
	if len(notices) != 0 {
		t.Errorf("no notices expected, got %v", notices)
	}
}

func TestReconcileConnectAfterGraceAutoSubmits(t *testing.T) {
	disconnected := time.Date(2026, 3, 1, 9, 10, 0, 0, time.UTC)
	// One second past the disconnect grace.
	attempt := liveAttempt(&disconnected, disconnected.Add(2*time.Minute+time.Second))

	store := &fakePresenceStore{active: []repository.ActiveAttempt{attempt}}
	finalizer := &fakeFinalizer{transition: true}
	svc := NewPresenceService(store, finalizer, zerolog.Nop())

	notices, err := svc.ReconcileConnect(context.Background(), 1)
	if err != nil {
		t.Fatalf("ReconcileConnect: %v", err)
	}

	if len(finalizer.submitted) != 1 || finalizer.submitted[0] != attempt.ExamID {
		t.Errorf("submitted = %v, want [%s]", finalizer.submitted, attempt.ExamID)
	}
	if len(store.cleared) != 0 {
		t.Errorf("lapsed attempt must not get its marker cleared, got %v", store.cleared)
	}
	if len(notices) != 1 || notices[0].ExamID != attempt.ExamID {
		t.Errorf("notices = %v, want one for %s", notices, attempt.ExamID)
	}
}

func TestReconcileConnectLostRaceEmitsNoNotice(t *testing.T) {
	disconnected := time.Date(2026, 3, 1, 9, 10, 0, 0, time.UTC)
	attempt := liveAttempt(&disconnected, disconnected.Add(3*time.Minute))

	store := &fakePresenceStore{active: []repository.ActiveAttempt{attempt}}
	// Another trigger already finalized: AutoSubmitExam reports no
	// transition.
	finalizer := &fakeFinalizer{transition: false}
	svc := NewPresenceService(store, finalizer, zerolog.Nop())

	notices, err := svc.ReconcileConnect(context.Background(), 1)
	if err != nil {
		t.Fatalf("ReconcileConnect: %v", err)
	}
	if len(notices) != 0 {
		t.Errorf("no transition means no notice, got %v", notices)
	}
}

func TestReconcileDisconnectMarksLiveAttempt(t *testing.T) {
	// Connected, well inside the window.
	attempt := liveAttempt(nil, time.Date(2026, 3, 1, 9, 15, 0, 0, time.UTC))

	store := &fakePresenceStore{active: []repository.ActiveAttempt{attempt}}
	finalizer := &fakeFinalizer{}
	svc := NewPresenceService(store, finalizer, zerolog.Nop())

	if err := svc.ReconcileDisconnect(context.Background(), 1); err != nil {
		t.Fatalf("ReconcileDisconnect: %v", err)
	}

	if len(store.marked) != 1 || store.marked[0] != attempt.ExamID {
		t.Errorf("marked = %v, want [%s]", store.marked, attempt.ExamID)
	}
	if len(finalizer.submitted) != 0 {
		t.Errorf("no auto-submit expected, got %v", finalizer.submitted)
	}
}

func TestReconcileDisconnectFinalizesExpiredAttempt(t *testing.T) {
	// One second past end_time + grace.
	attempt := liveAttempt(nil, time.Date(2026, 3, 1, 9, 32, 1, 0, time.UTC))

	store := &fakePresenceStore{active: []repository.ActiveAttempt{attempt}}
	finalizer := &fakeFinalizer{transition: true}
	svc := NewPresenceService(store, finalizer, zerolog.Nop())

	if err := svc.ReconcileDisconnect(context.Background(), 1); err != nil {
		t.Fatalf("ReconcileDisconnect: %v", err)
	}

	if len(finalizer.submitted) != 1 {
		t.Errorf("submitted = %v, want one entry", finalizer.submitted)
	}
	if len(store.marked) != 0 {
		t.Errorf("expired attempt must not be stamped, got %v", store.marked)
	}
}
