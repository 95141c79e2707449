package models

import (
	"testing"
	"time"
)

// The five lifecycle states are closed and strictly ordered; every pair is
// checked so adding a sixth state without wiring it here fails the test.
func TestSessionStatusOrderIsTotal(t *testing.T) {
	if len(AllSessionStatuses) != 5 {
		t.Fatalf("expected 5 session statuses, got %d", len(AllSessionStatuses))
	}
	for i, s := range AllSessionStatuses {
		if s.Order() != i {
			t.Errorf("status %q: order = %d, want %d", s, s.Order(), i)
		}
	}
	if SessionStatus("cancelled").Order() != -1 {
		t.Error("unknown status should have order -1")
	}
}

func TestSessionStatusTransitions(t *testing.T) {
	for _, from := range AllSessionStatuses {
		for _, to := range AllSessionStatuses {
			want := to.Order() > from.Order()
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("%q -> %q: got %t, want %t", from, to, got, want)
			}
		}
	}
	if SessionUpcoming.CanTransitionTo(SessionStatus("bogus")) {
		t.Error("transition to unknown status must be rejected")
	}
}

func TestSessionWindows(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := Session{StartsAt: start, GateDurationMinutes: 5, DurationMinutes: 30}

	if got := s.GateClosesAt(); !got.Equal(start.Add(5 * time.Minute)) {
		t.Errorf("gate closes at %v", got)
	}
	if got := s.EndsAt(); !got.Equal(start.Add(35 * time.Minute)) {
		t.Errorf("session ends at %v", got)
	}
}
