package models

import (
	"time"
)

// SessionStatus is the closed set of gate lifecycle states. Transitions are
// one-directional; a session never moves backwards.
type SessionStatus string

const (
	SessionUpcoming  SessionStatus = "upcoming"
	SessionGateOpen  SessionStatus = "gate_open"
	SessionMatching  SessionStatus = "matching"
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// AllSessionStatuses lists every state in lifecycle order.
var AllSessionStatuses = []SessionStatus{
	SessionUpcoming,
	SessionGateOpen,
	SessionMatching,
	SessionActive,
	SessionCompleted,
}

// Order returns the position of s in the lifecycle, or -1 for an unknown
// value (e.g. a corrupted row).
func (s SessionStatus) Order() int {
	switch s {
	case SessionUpcoming:
		return 0
	case SessionGateOpen:
		return 1
	case SessionMatching:
		return 2
	case SessionActive:
		return 3
	case SessionCompleted:
		return 4
	}
	return -1
}

// CanTransitionTo reports whether moving from s to next keeps the lifecycle
// monotonic. Skipping forward is allowed (a gate with no participants jumps
// matching → completed); regressing is not.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	from, to := s.Order(), next.Order()
	if from < 0 || to < 0 {
		return false
	}
	return to > from
}

// Session is one fixed-window co-working session. Rows are created by the
// admin endpoint (or the instant-match sweep) and only the gate lifecycle
// manager advances Status.
type Session struct {
	ID                  string        `json:"id" gorm:"primaryKey"`
	Name                string        `json:"name" gorm:"not null"`
	SessionType         string        `json:"session_type" gorm:"not null;index"`
	StartsAt            time.Time     `json:"starts_at" gorm:"not null;index"`
	GateDurationMinutes int           `json:"gate_duration_minutes" gorm:"default:5"`
	DurationMinutes     int           `json:"duration_minutes" gorm:"default:30"`
	Status              SessionStatus `json:"status" gorm:"type:varchar(16);default:'upcoming';index"`

	// Relationships
	Participants []SessionParticipant `json:"participants,omitempty" gorm:"foreignKey:SessionID"`
	Groups       []Group              `json:"groups,omitempty" gorm:"foreignKey:SessionID"`

	Timestamps
}

// GateClosesAt is when the joining window ends and matching runs.
func (s *Session) GateClosesAt() time.Time {
	return s.StartsAt.Add(time.Duration(s.GateDurationMinutes) * time.Minute)
}

// EndsAt is when the working window ends and the session completes.
func (s *Session) EndsAt() time.Time {
	return s.GateClosesAt().Add(time.Duration(s.DurationMinutes) * time.Minute)
}
