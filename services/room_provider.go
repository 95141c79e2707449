package services

import "context"

// RoomProvider is the external conferencing collaborator. The room name is
// the handle: callers generate it, hand it to CreateRoom, and persist it on
// the group record.
type RoomProvider interface {
	CreateRoom(ctx context.Context, name string, durationMinutes, capacity int) error
	IssueToken(userID, roomName, identity string) (string, error)
	DeleteRoom(ctx context.Context, name string) error
}
