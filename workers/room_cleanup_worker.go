package workers

import (
	"context"
	"log"
	"time"

	"session-pool-system/models"
	"session-pool-system/services"

	"gorm.io/gorm"
)

// Rooms of completed sessions are torn down after this grace period, so
// groups that ran long can say goodbye before the room disappears.
const cleanupGracePeriod = 15 * time.Minute

// RoomCleanupClient deletes the video rooms left behind by completed
// sessions and stamps the group rows so each room is deleted once.
type RoomCleanupClient struct {
	DB    *gorm.DB
	Rooms services.RoomProvider
}

func NewRoomCleanupClient(db *gorm.DB, rooms services.RoomProvider) *RoomCleanupClient {
	return &RoomCleanupClient{DB: db, Rooms: rooms}
}

// staleGroups finds groups whose session completed before the cutoff and
// whose room has not been deleted yet.
func (c *RoomCleanupClient) staleGroups(cutoff time.Time) ([]models.Group, error) {
	var groups []models.Group
	err := c.DB.
		Joins("JOIN sessions ON sessions.id = groups.session_id").
		Where("sessions.status = ? AND sessions.updated_at <= ? AND groups.room_deleted_at IS NULL",
			models.SessionCompleted, cutoff).
		Find(&groups).Error
	return groups, err
}

func (c *RoomCleanupClient) cleanupGroup(ctx context.Context, group models.Group) error {
	if err := c.Rooms.DeleteRoom(ctx, group.RoomName); err != nil {
		return err
	}
	now := time.Now().UTC()
	return c.DB.Model(&models.Group{}).
		Where("id = ? AND room_deleted_at IS NULL", group.ID).
		Update("room_deleted_at", now).Error
}

// PollRoomCleanup runs the cleanup loop until ctx is cancelled. A room
// whose deletion fails stays unmarked and is retried next tick.
func PollRoomCleanup(ctx context.Context, client *RoomCleanupClient, pollInterval time.Duration) {
	log.Println("Starting room cleanup polling...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Room cleanup polling stopped.")
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-cleanupGracePeriod)

			groups, err := client.staleGroups(cutoff)
			if err != nil {
				log.Printf("❌ Error querying stale rooms: %v", err)
				continue
			}
			if len(groups) == 0 {
				continue
			}

			cleaned := 0
			for _, group := range groups {
				if err := client.cleanupGroup(ctx, group); err != nil {
					log.Printf("❌ Failed to delete room %s: %v", group.RoomName, err)
					continue
				}
				cleaned++
			}
			log.Printf("🧹 Deleted %d stale room(s) of %d candidates.", cleaned, len(groups))
		}
	}
}
