package models

import "time"

// DefaultInstantSessionType tags queue entries that did not ask for a
// specific session type, so they all land in one matching bucket.
const DefaultInstantSessionType = "instant"

// InstantQueueEntry is one user waiting in the always-open instant pool.
// At most one entry per user; deleted once the user is matched or leaves.
type InstantQueueEntry struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"uniqueIndex;not null"`
	SessionType string    `json:"session_type" gorm:"type:varchar(32);default:'instant'"`
	JoinedAt    time.Time `json:"joined_at" gorm:"autoCreateTime;index"`
}
