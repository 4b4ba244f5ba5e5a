package model

import (
	"testing"
	"time"
)

func TestAttemptDeadline(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	attempt := &ExamAttempt{
		Status:    AttemptStatusInProgress,
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
	}
	grace := 2 * time.Minute

	want := start.Add(32 * time.Minute)
	if got := attempt.Deadline(grace); !got.Equal(want) {
		t.Errorf("Deadline = %v, want %v", got, want)
	}
}

func TestAttemptExpired(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	attempt := &ExamAttempt{
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
	}
	grace := 2 * time.Minute

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"one minute before end", start.Add(29 * time.Minute), false},
		{"exactly at end", start.Add(30 * time.Minute), false},
		{"within grace", start.Add(31 * time.Minute), false},
		{"exactly at deadline", start.Add(32 * time.Minute), false},
		{"past deadline", start.Add(32*time.Minute + time.Second), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := attempt.Expired(tc.now, grace); got != tc.want {
				t.Errorf("Expired(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestAttemptDisconnectExpired(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	disconnected := start.Add(10 * time.Minute)
	grace := 2 * time.Minute

	attempt := &ExamAttempt{
		StartTime:      start,
		EndTime:        start.Add(30 * time.Minute),
		DisconnectedAt: &disconnected,
	}

	if attempt.DisconnectExpired(disconnected.Add(grace-time.Second), grace) {
		t.Error("within disconnect grace should not be expired")
	}
	if attempt.DisconnectExpired(disconnected.Add(grace), grace) {
		t.Error("exactly at disconnect grace should not be expired")
	}
	if !attempt.DisconnectExpired(disconnected.Add(grace+time.Second), grace) {
		t.Error("past disconnect grace should be expired")
	}

	connected := &ExamAttempt{
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
	}
	if connected.DisconnectExpired(start.Add(time.Hour), grace) {
		t.Error("attempt without disconnect marker can never disconnect-expire")
	}
}

func TestAttemptAbandoned(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	disconnected := start.Add(5 * time.Minute)
	grace := 2 * time.Minute

	// Disconnect grace lapses long before the exam window does.
	attempt := &ExamAttempt{
		StartTime:      start,
		EndTime:        start.Add(30 * time.Minute),
		DisconnectedAt: &disconnected,
	}

	if attempt.Abandoned(disconnected.Add(grace), grace) {
		t.Error("still within both windows, not abandoned")
	}
	if !attempt.Abandoned(disconnected.Add(grace+time.Second), grace) {
		t.Error("disconnect grace lapsed, should be abandoned")
	}

	// No disconnect: only the window deadline matters.
	connected := &ExamAttempt{
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
	}
	if connected.Abandoned(start.Add(31*time.Minute), grace) {
		t.Error("within end grace, not abandoned")
	}
	if !connected.Abandoned(start.Add(33*time.Minute), grace) {
		t.Error("past end grace, should be abandoned")
	}
}
