package livekit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestNormalizeURL(t *testing.T) {
	cases := map[string]string{
		"wss://rooms.example.com": "https://rooms.example.com",
		"ws://localhost:7880":     "http://localhost:7880",
		"https://rooms.example.c": "https://rooms.example.c",
		"http://localhost:7880":   "http://localhost:7880",
	}
	for in, want := range cases {
		if got := normalizeURL(in); got != want {
			t.Errorf("normalizeURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIssueTokenClaims(t *testing.T) {
	c := NewClient("https://rooms.example.com", "api-key", "api-secret")

	signed, err := c.IssueToken("user-1", "session-focus-abc", "ada")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	token, err := jwt.Parse(signed, func(t *jwt.Token) (interface{}, error) {
		return []byte("api-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("token does not verify: %v", err)
	}

	claims := token.Claims.(jwt.MapClaims)
	if claims["iss"] != "api-key" {
		t.Errorf("iss = %v", claims["iss"])
	}
	if claims["sub"] != "ada" {
		t.Errorf("sub = %v", claims["sub"])
	}
	video, ok := claims["video"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing video grant: %v", claims)
	}
	if video["room"] != "session-focus-abc" || video["roomJoin"] != true {
		t.Errorf("unexpected grant: %v", video)
	}
	if video["canPublish"] != true || video["canSubscribe"] != true {
		t.Errorf("unexpected publish/subscribe grant: %v", video)
	}
	if meta, _ := claims["metadata"].(string); !strings.Contains(meta, "user-1") {
		t.Errorf("metadata should carry the user id, got %q", meta)
	}
}

func TestCreateRoomRequest(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "api-key", "api-secret")
	if err := c.CreateRoom(context.Background(), "session-focus-abc", 30, 3); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	if gotPath != "/twirp/livekit.RoomService/CreateRoom" {
		t.Errorf("path = %q", gotPath)
	}
	if !strings.HasPrefix(gotAuth, "Bearer ") {
		t.Errorf("missing bearer admin token, got %q", gotAuth)
	}
	if gotBody["name"] != "session-focus-abc" {
		t.Errorf("room name = %v", gotBody["name"])
	}
	if gotBody["max_participants"] != float64(3) {
		t.Errorf("max_participants = %v", gotBody["max_participants"])
	}
}

func TestDeleteRoomSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "room not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "api-key", "api-secret")
	err := c.DeleteRoom(context.Background(), "ghost-room")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status error, got %v", err)
	}
}
