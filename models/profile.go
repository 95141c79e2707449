package models

import "time"

// Profile holds the per-user streak ledger state. Owned by the profile
// service upstream; this service reads the handle and is the sole writer of
// the streak fields.
//
// LastParticipationDate is nil until the first qualifying participation;
// whenever it is set, Streak is at least 1 (until the daily reset sweep
// zeroes a lapsed streak). Only the calendar date matters, the time-of-day
// component is always midnight UTC.
type Profile struct {
	UserID string `json:"user_id" gorm:"primaryKey"`
	Handle string `json:"handle" gorm:"index"`

	Streak                int        `json:"streak" gorm:"default:0"`
	LastParticipationDate *time.Time `json:"last_participation_date,omitempty" gorm:"type:date"`

	Timestamps
}
