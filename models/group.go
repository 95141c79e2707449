package models

import "time"

// Group is one matched working group inside a session, backed by a video
// room. Rows are write-once: created during close-gate (or the instant
// sweep) and never mutated, except for the cleanup marker.
type Group struct {
	ID          string `json:"id" gorm:"primaryKey"`
	SessionID   string `json:"session_id" gorm:"not null;index"`
	RoomName    string `json:"room_name" gorm:"not null"`
	GroupType   string `json:"group_type" gorm:"type:varchar(16);not null"` // matched / universal / lobby
	SessionType string `json:"session_type"`
	AvgStreak   int    `json:"avg_streak"`

	// Set by the room cleanup worker once the backing room is deleted.
	RoomDeletedAt *time.Time `json:"room_deleted_at,omitempty" gorm:"index"`

	// Relationships
	Members []GroupMember `json:"members,omitempty" gorm:"foreignKey:GroupID"`

	Timestamps
}

// GroupMember is one user's seat in a group. Position preserves the
// engine's streak-descending member order.
type GroupMember struct {
	ID       string `json:"id" gorm:"primaryKey"`
	GroupID  string `json:"group_id" gorm:"not null;index"`
	UserID   string `json:"user_id" gorm:"not null;index"`
	Position int    `json:"position"`

	Timestamps
}
