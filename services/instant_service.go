package services

import (
	"context"
	"log"
	"time"

	"session-pool-system/matching"
	"session-pool-system/models"
	"session-pool-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Instant sessions have no gate: matched users go straight to work.
const instantSessionMinutes = 30

// InstantMatchService runs the always-open pool. Users queue up, a short
// sweep interval runs the matching engine over the whole queue, and matched
// users are moved into an ad-hoc active session. Unmatched users simply
// stay queued for the next sweep; the pool has no lobby.
type InstantMatchService struct {
	DB    *gorm.DB
	Rooms RoomProvider
}

func NewInstantMatchService(db *gorm.DB, rooms RoomProvider) *InstantMatchService {
	return &InstantMatchService{DB: db, Rooms: rooms}
}

// SweepInstantQueue matches everything currently queued. Returns the number
// of users matched out of the queue.
func (s *InstantMatchService) SweepInstantQueue(ctx context.Context, now time.Time) (int, error) {
	type row struct {
		UserID      string
		SessionType string
		Handle      string
		Streak      int
	}
	var rows []row
	err := s.DB.Table("instant_queue_entries").
		Select("instant_queue_entries.user_id AS user_id, instant_queue_entries.session_type AS session_type, profiles.handle AS handle, profiles.streak AS streak").
		Joins("JOIN profiles ON profiles.user_id = instant_queue_entries.user_id").
		Order("instant_queue_entries.joined_at ASC").
		Scan(&rows).Error
	if err != nil {
		return 0, err
	}
	if len(rows) < 2 {
		return 0, nil
	}

	participants := make([]matching.Participant, 0, len(rows))
	for _, r := range rows {
		sessionType := r.SessionType
		if sessionType == "" {
			sessionType = models.DefaultInstantSessionType
		}
		participants = append(participants, matching.Participant{
			UserID:      r.UserID,
			Handle:      r.Handle,
			Streak:      r.Streak,
			SessionType: sessionType,
		})
	}

	result := matching.RunMatching(participants)
	if len(result.Groups) == 0 {
		return 0, nil
	}

	session := models.Session{
		ID:                  uuid.NewString(),
		Name:                "Instant Match",
		SessionType:         models.DefaultInstantSessionType,
		StartsAt:            now,
		GateDurationMinutes: 0,
		DurationMinutes:     instantSessionMinutes,
		Status:              models.SessionActive,
	}
	if err := s.DB.Create(&session).Error; err != nil {
		return 0, err
	}

	matched := 0
	for _, group := range result.Groups {
		created, err := s.createInstantGroup(ctx, &session, group)
		if err != nil {
			// Members stay queued and get another shot next sweep.
			log.Printf("[INSTANT] group creation failed: %v", err)
			continue
		}
		matched += created
	}

	if matched > 0 {
		log.Printf("[INSTANT] sweep matched %d users into session %s", matched, session.ID)
	}
	return matched, nil
}

func (s *InstantMatchService) createInstantGroup(ctx context.Context, session *models.Session, group matching.Group) (int, error) {
	roomName := utils.RoomName("instant", session.Name)

	if err := s.Rooms.CreateRoom(ctx, roomName, session.DurationMinutes, len(group.Members)); err != nil {
		return 0, err
	}

	record := models.Group{
		ID:          uuid.NewString(),
		SessionID:   session.ID,
		RoomName:    roomName,
		GroupType:   group.Type,
		SessionType: group.SessionType,
		AvgStreak:   group.AvgStreak,
	}
	if err := s.DB.Create(&record).Error; err != nil {
		return 0, err
	}

	matched := 0
	for i, member := range group.Members {
		gm := models.GroupMember{
			ID:       uuid.NewString(),
			GroupID:  record.ID,
			UserID:   member.UserID,
			Position: i,
		}
		if err := s.DB.Create(&gm).Error; err != nil {
			log.Printf("[INSTANT] failed to persist member %s: %v", member.UserID, err)
			continue
		}

		sp := models.SessionParticipant{
			ID:        uuid.NewString(),
			SessionID: session.ID,
			UserID:    member.UserID,
			Status:    models.ParticipantMatched,
		}
		if err := s.DB.Create(&sp).Error; err != nil {
			log.Printf("[INSTANT] failed to persist participant %s: %v", member.UserID, err)
		}

		if err := s.DB.Where("user_id = ?", member.UserID).
			Delete(&models.InstantQueueEntry{}).Error; err != nil {
			log.Printf("[INSTANT] failed to dequeue %s: %v", member.UserID, err)
		}
		matched++
	}
	return matched, nil
}

// JoinQueue handles POST /s/queue — add (or refresh) the caller's queue
// entry. One entry per user; re-joining updates the requested session type.
func (s *InstantMatchService) JoinQueue(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing user context"})
	}

	var req struct {
		SessionType string `json:"session_type"`
	}
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.SessionType == "" {
		req.SessionType = models.DefaultInstantSessionType
	}

	entry := models.InstantQueueEntry{
		ID:          uuid.NewString(),
		UserID:      userID,
		SessionType: req.SessionType,
		JoinedAt:    time.Now().UTC(),
	}
	err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"session_type", "joined_at"}),
	}).Create(&entry).Error
	if err != nil {
		log.Printf("[INSTANT] queue join failed for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to join queue"})
	}

	return c.JSON(fiber.Map{"queued": entry})
}

// LeaveQueue handles DELETE /s/queue — drop the caller's queue entry.
func (s *InstantMatchService) LeaveQueue(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing user context"})
	}

	if err := s.DB.Where("user_id = ?", userID).Delete(&models.InstantQueueEntry{}).Error; err != nil {
		log.Printf("[INSTANT] queue leave failed for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to leave queue"})
	}

	return c.JSON(fiber.Map{"success": true})
}
