// Package livekit is a thin client for the LiveKit server API: room
// creation/deletion over the Twirp HTTP surface and join-token minting.
// Only what the gate lifecycle needs — no media handling.
package livekit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Rooms left empty auto-close after this many seconds.
const emptyRoomTimeoutSec = 300

// Client talks to one LiveKit deployment. Construct it explicitly and pass
// it into the services that need it; there is no package-level instance.
type Client struct {
	baseURL   string
	apiKey    string
	apiSecret string
	http      *http.Client
}

func NewClient(serverURL, apiKey, apiSecret string) *Client {
	return &Client{
		baseURL:   normalizeURL(serverURL),
		apiKey:    apiKey,
		apiSecret: apiSecret,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientFromEnv reads LIVEKIT_URL, LIVEKIT_API_KEY and
// LIVEKIT_API_SECRET.
func NewClientFromEnv() (*Client, error) {
	serverURL := os.Getenv("LIVEKIT_URL")
	apiKey := os.Getenv("LIVEKIT_API_KEY")
	apiSecret := os.Getenv("LIVEKIT_API_SECRET")
	if serverURL == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("LIVEKIT_URL, LIVEKIT_API_KEY and LIVEKIT_API_SECRET must be set")
	}
	return NewClient(serverURL, apiKey, apiSecret), nil
}

// normalizeURL maps the websocket URL clients use onto the HTTP API host.
func normalizeURL(u string) string {
	switch {
	case strings.HasPrefix(u, "wss://"):
		return "https://" + strings.TrimPrefix(u, "wss://")
	case strings.HasPrefix(u, "ws://"):
		return "http://" + strings.TrimPrefix(u, "ws://")
	}
	return u
}

// videoGrant is the LiveKit "video" JWT claim.
type videoGrant struct {
	RoomCreate   bool   `json:"roomCreate,omitempty"`
	RoomAdmin    bool   `json:"roomAdmin,omitempty"`
	RoomJoin     bool   `json:"roomJoin,omitempty"`
	Room         string `json:"room,omitempty"`
	CanPublish   *bool  `json:"canPublish,omitempty"`
	CanSubscribe *bool  `json:"canSubscribe,omitempty"`
}

func (c *Client) signToken(identity string, ttl time.Duration, grant videoGrant, metadata string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   c.apiKey,
		"sub":   identity,
		"nbf":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
		"video": grant,
	}
	if metadata != "" {
		claims["metadata"] = metadata
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.apiSecret))
}

// CreateRoom creates a named room with a participant cap. The session
// duration rides along as room metadata for the frontend timer.
func (c *Client) CreateRoom(ctx context.Context, name string, durationMinutes, capacity int) error {
	metadata, _ := json.Marshal(map[string]int{"durationMinutes": durationMinutes})
	return c.twirp(ctx, "CreateRoom", map[string]interface{}{
		"name":             name,
		"empty_timeout":    emptyRoomTimeoutSec,
		"max_participants": capacity,
		"metadata":         string(metadata),
	})
}

// DeleteRoom tears a room down, disconnecting anyone still inside.
func (c *Client) DeleteRoom(ctx context.Context, name string) error {
	return c.twirp(ctx, "DeleteRoom", map[string]interface{}{"room": name})
}

// IssueToken mints a join token scoped to a single room. The identity is
// what other participants see; the user id travels in the metadata claim.
func (c *Client) IssueToken(userID, roomName, identity string) (string, error) {
	canPublish, canSubscribe := true, true
	metadata, _ := json.Marshal(map[string]string{"userId": userID})
	return c.signToken(identity, 6*time.Hour, videoGrant{
		RoomJoin:     true,
		Room:         roomName,
		CanPublish:   &canPublish,
		CanSubscribe: &canSubscribe,
	}, string(metadata))
}

func (c *Client) twirp(ctx context.Context, method string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	adminToken, err := c.signToken(c.apiKey, time.Minute, videoGrant{RoomCreate: true, RoomAdmin: true}, "")
	if err != nil {
		return fmt.Errorf("sign admin token: %w", err)
	}

	url := fmt.Sprintf("%s/twirp/livekit.RoomService/%s", strings.TrimRight(c.baseURL, "/"), method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+adminToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("livekit %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("livekit %s: status %d: %s", method, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
