package utils

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// RoomName builds a unique, URL-safe room name from a prefix and a
// human-readable label, e.g. "session-morning-focus-1a2b3c4d".
func RoomName(prefix, label string) string {
	cleaned := slug.Make(label)
	if cleaned == "" {
		cleaned = "room"
	}
	return fmt.Sprintf("%s-%s-%s", prefix, cleaned, uuid.NewString()[:8])
}
