package models

// ParticipantStatus tracks one user's progress through a session.
type ParticipantStatus string

const (
	ParticipantWaiting   ParticipantStatus = "waiting"
	ParticipantMatched   ParticipantStatus = "matched"
	ParticipantInRoom    ParticipantStatus = "in_room"
	ParticipantCompleted ParticipantStatus = "completed"
)

// SessionParticipant links a user to a session's waiting list. Created when
// the user joins through the gate; Status is advanced by the gate lifecycle
// manager as matching and completion occur.
type SessionParticipant struct {
	ID        string            `json:"id" gorm:"primaryKey"`
	SessionID string            `json:"session_id" gorm:"not null;index;uniqueIndex:idx_session_user"`
	UserID    string            `json:"user_id" gorm:"not null;index;uniqueIndex:idx_session_user"`
	Status    ParticipantStatus `json:"status" gorm:"type:varchar(16);default:'waiting'"`

	Timestamps
}
