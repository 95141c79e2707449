package services

import (
	"errors"
	"log"
	"time"

	"session-pool-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionService exposes the thin HTTP surface around sessions: creation
// (admin), listing, joining through an open gate, and room token issuance.
// It never touches Session.Status — that belongs to the GateService.
type SessionService struct {
	DB    *gorm.DB
	Rooms RoomProvider
}

func NewSessionService(db *gorm.DB, rooms RoomProvider) *SessionService {
	return &SessionService{DB: db, Rooms: rooms}
}

// CreateSession handles POST /s/admin/sessions.
func (s *SessionService) CreateSession(c *fiber.Ctx) error {
	var req struct {
		Name                string    `json:"name"`
		SessionType         string    `json:"session_type"`
		StartsAt            time.Time `json:"starts_at"`
		GateDurationMinutes int       `json:"gate_duration_minutes"`
		DurationMinutes     int       `json:"duration_minutes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.Name == "" || req.SessionType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name and session_type are required"})
	}
	if req.StartsAt.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "starts_at is required"})
	}
	if req.GateDurationMinutes <= 0 {
		req.GateDurationMinutes = 5
	}
	if req.DurationMinutes <= 0 {
		req.DurationMinutes = 30
	}

	session := models.Session{
		ID:                  uuid.NewString(),
		Name:                req.Name,
		SessionType:         req.SessionType,
		StartsAt:            req.StartsAt.UTC(),
		GateDurationMinutes: req.GateDurationMinutes,
		DurationMinutes:     req.DurationMinutes,
		Status:              models.SessionUpcoming,
	}
	if err := s.DB.Create(&session).Error; err != nil {
		log.Printf("[SESSION] create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create session"})
	}

	return c.Status(fiber.StatusCreated).JSON(session)
}

// ListSessions handles GET /s/sessions — upcoming and open sessions first.
func (s *SessionService) ListSessions(c *fiber.Ctx) error {
	var sessions []models.Session
	query := s.DB.Order("starts_at ASC")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", models.SessionStatus(status))
	}

	if err := query.Find(&sessions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list sessions"})
	}
	return c.JSON(sessions)
}

// GetSession handles GET /s/sessions/:id with groups and participants.
func (s *SessionService) GetSession(c *fiber.Ctx) error {
	id := c.Params("id")

	var session models.Session
	err := s.DB.Preload("Groups.Members").Preload("Participants").
		First(&session, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(session)
}

// JoinSession handles POST /s/sessions/:id/join — add the caller to the
// waiting list. Only allowed while the gate is open; re-joining is a no-op.
func (s *SessionService) JoinSession(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing user context"})
	}
	sessionID := c.Params("id")

	var session models.Session
	if err := s.DB.First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}
	if session.Status != models.SessionGateOpen {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "gate is not open"})
	}

	var existing models.SessionParticipant
	err := s.DB.Where("session_id = ? AND user_id = ?", sessionID, userID).First(&existing).Error
	if err == nil {
		return c.JSON(fiber.Map{"participant": existing})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}

	participant := models.SessionParticipant{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		UserID:    userID,
		Status:    models.ParticipantWaiting,
	}
	if err := s.DB.Create(&participant).Error; err != nil {
		log.Printf("[SESSION] join failed for %s in %s: %v", userID, sessionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to join session"})
	}

	return c.JSON(fiber.Map{"participant": participant})
}

// RoomToken handles POST /s/rooms/token — issue a join token for the room
// backing the caller's group. Membership is checked first.
func (s *SessionService) RoomToken(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing user context"})
	}

	var req struct {
		RoomName string `json:"room_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.RoomName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "room_name is required"})
	}

	var count int64
	err := s.DB.Table("group_members").
		Joins("JOIN groups ON groups.id = group_members.group_id").
		Where("group_members.user_id = ? AND groups.room_name = ?", userID, req.RoomName).
		Count(&count).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database error"})
	}
	if count == 0 {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not a member of this room"})
	}

	identity := userID
	var profile models.Profile
	if err := s.DB.First(&profile, "user_id = ?", userID).Error; err == nil && profile.Handle != "" {
		identity = profile.Handle
	}

	token, err := s.Rooms.IssueToken(userID, req.RoomName, identity)
	if err != nil {
		log.Printf("[SESSION] token issue failed for %s in %s: %v", userID, req.RoomName, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to issue token"})
	}

	return c.JSON(fiber.Map{"token": token})
}
