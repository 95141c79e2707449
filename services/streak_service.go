package services

import (
	"errors"
	"log"
	"time"

	"session-pool-system/models"

	"gorm.io/gorm"
)

// StreakService is the ledger converting participation events into per-user
// daily streaks. It is the sole writer of Profile.Streak and
// Profile.LastParticipationDate.
type StreakService struct {
	DB *gorm.DB
}

func NewStreakService(db *gorm.DB) *StreakService {
	return &StreakService{DB: db}
}

// dateOnly truncates to the UTC calendar date; only dates enter the ledger.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDate(a, b time.Time) bool {
	return dateOnly(a).Equal(dateOnly(b))
}

// nextStreak applies the ledger rules for a participation on asOf:
// same day as the last one → unchanged (idempotent per day); the day after
// → increment; anything else, including a first-ever participation → 1.
// The second return value reports whether the profile needs a write.
func nextStreak(current int, last *time.Time, asOf time.Time) (int, bool) {
	if last != nil && sameDate(*last, asOf) {
		return current, false
	}
	if last != nil && sameDate(*last, asOf.AddDate(0, 0, -1)) {
		return current + 1, true
	}
	return 1, true
}

// RecordParticipation credits one user's participation on the given day.
// Idempotent: repeated calls on the same calendar day change nothing.
func (s *StreakService) RecordParticipation(userID string, asOf time.Time) error {
	if userID == "" {
		return validationErr("user id is required")
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		var profile models.Profile
		if err := tx.First(&profile, "user_id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundErr("profile", userID)
			}
			return err
		}

		streak, changed := nextStreak(profile.Streak, profile.LastParticipationDate, asOf)
		if !changed {
			return nil
		}

		today := dateOnly(asOf)
		return tx.Model(&models.Profile{}).
			Where("user_id = ?", userID).
			Updates(map[string]interface{}{
				"streak":                  streak,
				"last_participation_date": today,
			}).Error
	})
}

// DailyStreakReset zeroes every streak whose owner skipped a day: last
// participation strictly before yesterday and a positive streak. Profiles
// already at zero and profiles that participated yesterday are untouched.
//
// RecordParticipation never decrements, so this sweep is what actually
// enforces "miss a day and the streak resets". The scheduler runs it at
// midnight, before any same-day participation can be recorded.
func (s *StreakService) DailyStreakReset(asOf time.Time) (int64, error) {
	yesterday := dateOnly(asOf).AddDate(0, 0, -1)

	res := s.DB.Model(&models.Profile{}).
		Where("last_participation_date < ? AND streak > 0", yesterday).
		Update("streak", 0)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		log.Printf("[STREAK] daily reset zeroed %d lapsed streaks", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

// RecordSessionParticipation credits everyone who actually took part in a
// completed session: matched, in-room or completed participants. Waiting
// rows (users who never got a room) earn nothing. Per-user failures are
// logged and skipped so one broken profile cannot block the batch.
func (s *StreakService) RecordSessionParticipation(sessionID string, asOf time.Time) (int, error) {
	if sessionID == "" {
		return 0, validationErr("session id is required")
	}

	var userIDs []string
	err := s.DB.Model(&models.SessionParticipant{}).
		Where("session_id = ? AND status IN ?", sessionID, []models.ParticipantStatus{
			models.ParticipantMatched,
			models.ParticipantInRoom,
			models.ParticipantCompleted,
		}).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return 0, err
	}

	recorded := 0
	for _, userID := range userIDs {
		if err := s.RecordParticipation(userID, asOf); err != nil {
			log.Printf("[STREAK] failed to record participation for %s in session %s: %v",
				userID, sessionID, err)
			continue
		}
		recorded++
	}
	return recorded, nil
}
