package services

import (
	"context"
	"errors"
	"log"
	"time"

	"session-pool-system/matching"
	"session-pool-system/models"
	"session-pool-system/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GateService drives the session lifecycle: opening gates, closing them
// (which runs the matching engine and provisions rooms), and completing
// expired sessions. It is the sole writer of Session.Status.
//
// Every status transition is a conditional update guarded by the expected
// prior status. Overlapping sweep invocations racing on the same session
// resolve safely: the loser's update touches zero rows and is skipped.
type GateService struct {
	DB    *gorm.DB
	Rooms RoomProvider
}

func NewGateService(db *gorm.DB, rooms RoomProvider) *GateService {
	return &GateService{DB: db, Rooms: rooms}
}

// CloseReport summarizes one close-gate run. FailedGroups counts groups
// whose room or record creation failed; their members stay behind without a
// room and are surfaced here rather than aborting the sibling groups.
type CloseReport struct {
	SessionID    string `json:"session_id"`
	Skipped      bool   `json:"skipped"`
	Groups       int    `json:"groups"`
	LobbyUsers   int    `json:"lobby_users"`
	MatchedUsers int    `json:"matched_users"`
	FailedGroups int    `json:"failed_groups"`
}

// OpenGate transitions a session from upcoming to gate_open. Calling it on
// a session in any other state is a no-op, so redundant sweep invocations
// are harmless. Returns whether this call performed the transition.
func (s *GateService) OpenGate(sessionID string) (bool, error) {
	if sessionID == "" {
		return false, validationErr("session id is required")
	}

	res := s.DB.Model(&models.Session{}).
		Where("id = ? AND status = ?", sessionID, models.SessionUpcoming).
		Update("status", models.SessionGateOpen)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// OpenDueGates opens every upcoming session whose start time has arrived.
// Per-session failures are collected, never fatal to the sweep.
func (s *GateService) OpenDueGates(now time.Time) ([]string, []SweepFailure) {
	var sessions []models.Session
	if err := s.DB.Where("status = ? AND starts_at <= ?", models.SessionUpcoming, now).
		Find(&sessions).Error; err != nil {
		log.Printf("[GATE] open sweep query failed: %v", err)
		return nil, []SweepFailure{{SessionID: "*", Reason: err.Error()}}
	}

	var opened []string
	var failures []SweepFailure
	for _, session := range sessions {
		changed, err := s.OpenGate(session.ID)
		if err != nil {
			log.Printf("[GATE] failed to open gate for session %s: %v", session.ID, err)
			failures = append(failures, sweepFailure(session.ID, err))
			continue
		}
		if changed {
			opened = append(opened, session.ID)
		}
	}
	return opened, failures
}

// CloseGate ends the joining window for one session: it collects the
// waiting participants, runs the matching engine, provisions a room per
// group, persists the groups, and advances the session to active.
//
// A gate with zero waiting participants jumps straight to completed; that
// is a normal outcome, not an error. A session already past gate_open
// yields a skipped report (benign conflict), an absent session ErrNotFound.
func (s *GateService) CloseGate(ctx context.Context, sessionID string) (*CloseReport, error) {
	if sessionID == "" {
		return nil, validationErr("session id is required")
	}
	report := &CloseReport{SessionID: sessionID}

	res := s.DB.Model(&models.Session{}).
		Where("id = ? AND status = ?", sessionID, models.SessionGateOpen).
		Update("status", models.SessionMatching)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.DB.Model(&models.Session{}).Where("id = ?", sessionID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, notFoundErr("session", sessionID)
		}
		// Another invocation won the race or the gate never opened.
		report.Skipped = true
		return report, nil
	}

	var session models.Session
	if err := s.DB.First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("session", sessionID)
		}
		return nil, err
	}

	participants, err := s.waitingParticipants(session)
	if err != nil {
		return nil, err
	}

	if len(participants) == 0 {
		res := s.DB.Model(&models.Session{}).
			Where("id = ? AND status = ?", sessionID, models.SessionMatching).
			Update("status", models.SessionCompleted)
		if res.Error != nil {
			return nil, res.Error
		}
		log.Printf("[GATE] session %s closed with no waiting participants", sessionID)
		return report, nil
	}

	result := matching.RunMatching(participants)

	for _, group := range result.Groups {
		if err := s.createGroup(ctx, &session, group, "session"); err != nil {
			log.Printf("[GATE] group creation failed for session %s: %v", sessionID, err)
			report.FailedGroups++
			continue
		}
		report.Groups++
		report.MatchedUsers += len(group.Members)
	}

	// The lobby leftover still gets an overflow room sized for walk-ins,
	// and counts as matched for completion and streak purposes.
	for _, lobbyUser := range result.LobbyUsers {
		lobbyGroup := matching.Group{
			Members:     []matching.Participant{lobbyUser},
			Type:        matching.GroupTypeLobby,
			SessionType: session.SessionType,
			AvgStreak:   lobbyUser.Streak,
		}
		if err := s.createGroup(ctx, &session, lobbyGroup, "lobby"); err != nil {
			log.Printf("[GATE] lobby room creation failed for session %s: %v", sessionID, err)
			report.FailedGroups++
			continue
		}
		report.LobbyUsers++
	}

	res = s.DB.Model(&models.Session{}).
		Where("id = ? AND status = ?", sessionID, models.SessionMatching).
		Update("status", models.SessionActive)
	if res.Error != nil {
		return report, res.Error
	}

	log.Printf("[GATE] session %s closed: %d groups, %d lobby, %d failed",
		sessionID, report.Groups, report.LobbyUsers, report.FailedGroups)
	return report, nil
}

// waitingParticipants loads the session's waiting list joined with profile
// streaks, tagged with the session's type for the engine.
func (s *GateService) waitingParticipants(session models.Session) ([]matching.Participant, error) {
	type row struct {
		UserID string
		Handle string
		Streak int
	}
	var rows []row
	err := s.DB.Table("session_participants").
		Select("session_participants.user_id AS user_id, profiles.handle AS handle, profiles.streak AS streak").
		Joins("JOIN profiles ON profiles.user_id = session_participants.user_id").
		Where("session_participants.session_id = ? AND session_participants.status = ?",
			session.ID, models.ParticipantWaiting).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	participants := make([]matching.Participant, 0, len(rows))
	for _, r := range rows {
		participants = append(participants, matching.Participant{
			UserID:      r.UserID,
			Handle:      r.Handle,
			Streak:      r.Streak,
			SessionType: session.SessionType,
		})
	}
	return participants, nil
}

// createGroup provisions the room, persists the group with its members and
// advances the members' participant rows to matched. Lobby rooms are sized
// for three so pool stragglers from a later repair can still join.
func (s *GateService) createGroup(ctx context.Context, session *models.Session, group matching.Group, prefix string) error {
	roomName := utils.RoomName(prefix, session.Name)

	capacity := len(group.Members)
	if group.Type == matching.GroupTypeLobby {
		capacity = 3
	}
	if err := s.Rooms.CreateRoom(ctx, roomName, session.DurationMinutes, capacity); err != nil {
		return err
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
		return err
	}

	for i, member := range group.Members {
		gm := models.GroupMember{
			ID:       uuid.NewString(),
			GroupID:  record.ID,
			UserID:   member.UserID,
			Position: i,
		}
		if err := s.DB.Create(&gm).Error; err != nil {
			log.Printf("[GATE] failed to persist member %s of group %s: %v", member.UserID, record.ID, err)
			continue
		}

		if err := s.DB.Model(&models.SessionParticipant{}).
			Where("session_id = ? AND user_id = ? AND status = ?",
				session.ID, member.UserID, models.ParticipantWaiting).
			Update("status", models.ParticipantMatched).Error; err != nil {
			log.Printf("[GATE] failed to mark %s matched in session %s: %v", member.UserID, session.ID, err)
		}
	}
	return nil
}

// CloseDueGates closes every gate_open session whose joining window has
// elapsed. The heavy lifting per session is CloseGate; one session's
// failure never blocks the rest.
func (s *GateService) CloseDueGates(ctx context.Context, now time.Time) ([]string, []SweepFailure) {
	var sessions []models.Session
	if err := s.DB.Where("status = ?", models.SessionGateOpen).Find(&sessions).Error; err != nil {
		log.Printf("[GATE] close sweep query failed: %v", err)
		return nil, []SweepFailure{{SessionID: "*", Reason: err.Error()}}
	}

	var closed []string
	var failures []SweepFailure
	for _, session := range sessions {
		if now.Before(session.GateClosesAt()) {
			continue
		}
		report, err := s.CloseGate(ctx, session.ID)
		if err != nil {
			failures = append(failures, sweepFailure(session.ID, err))
			continue
		}
		if !report.Skipped {
			closed = append(closed, session.ID)
		}
	}
	return closed, failures
}

// CompleteExpiredSessions finishes every active session whose working
// window has elapsed: the session and all its participants move to
// completed. Returns the completed ids so the caller can feed them to the
// streak ledger.
func (s *GateService) CompleteExpiredSessions(now time.Time) ([]string, []SweepFailure) {
	var sessions []models.Session
	if err := s.DB.Where("status = ?", models.SessionActive).Find(&sessions).Error; err != nil {
		log.Printf("[GATE] complete sweep query failed: %v", err)
		return nil, []SweepFailure{{SessionID: "*", Reason: err.Error()}}
	}

	var completed []string
	var failures []SweepFailure
	for _, session := range sessions {
		if now.Before(session.EndsAt()) {
			continue
		}

		res := s.DB.Model(&models.Session{}).
			Where("id = ? AND status = ?", session.ID, models.SessionActive).
			Update("status", models.SessionCompleted)
		if res.Error != nil {
			failures = append(failures, sweepFailure(session.ID, res.Error))
			continue
		}
		if res.RowsAffected == 0 {
			continue // raced with a sibling sweep
		}

		if err := s.DB.Model(&models.SessionParticipant{}).
			Where("session_id = ?", session.ID).
			Update("status", models.ParticipantCompleted).Error; err != nil {
			log.Printf("[GATE] failed to complete participants of %s: %v", session.ID, err)
			failures = append(failures, sweepFailure(session.ID, err))
		}

		completed = append(completed, session.ID)
	}
	return completed, failures
}
