package tavus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubRoom struct {
	awaited []string
	err     error
}

func (r *stubRoom) AwaitParticipant(ctx context.Context, identity string) error {
	r.awaited = append(r.awaited, identity)
	return r.err
}

func TestStartCreatesConversationAndAwaitsAvatar(t *testing.T) {
	var gotPath, gotAPIKey string
	var gotRequest conversationRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("x-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("failed to decode conversation request: %v", err)
		}
		json.NewEncoder(w).Encode(conversationResponse{
			ConversationID:  "c-123",
			ConversationURL: "https://tavus.daily.co/c-123",
		})
	}))
	defer server.Close()

	room := &stubRoom{}
	client := NewAvatarClient(
		WithAPIKey("secret"),
		WithReplicaID("r-1"),
		WithPersonaID("p-1"),
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()),
		WithRoom(room),
	)

	err := client.Start(context.Background(), RoomAccess{
		ServerURL:        "wss://example.livekit.cloud",
		RoomName:         "echo-room",
		ParticipantToken: "token-1",
	})
	if err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	if gotPath != "/v2/conversations" {
		t.Fatalf("expected conversation create path, got %q", gotPath)
	}
	if gotAPIKey != "secret" {
		t.Fatalf("expected api key header, got %q", gotAPIKey)
	}
	if gotRequest.ReplicaID != "r-1" || gotRequest.PersonaID != "p-1" {
		t.Fatalf("unexpected replica/persona in request: %+v", gotRequest)
	}
	if gotRequest.Properties.RoomName != "echo-room" || gotRequest.Properties.ParticipantToken != "token-1" {
		t.Fatalf("expected room access in request properties, got %+v", gotRequest.Properties)
	}
	if client.conversationID != "c-123" {
		t.Fatalf("expected stored conversation id, got %q", client.conversationID)
	}
	if len(room.awaited) != 1 || room.awaited[0] != defaultParticipantName {
		t.Fatalf("expected await for %q, got %v", defaultParticipantName, room.awaited)
	}
}

func TestStartFailsWithoutAPIKey(t *testing.T) {
	client := &AvatarClient{
		participantName: defaultParticipantName,
		baseURL:         defaultBaseURL,
		httpClient:      http.DefaultClient,
	}

	if err := client.Start(context.Background(), RoomAccess{}); err == nil {
		t.Fatalf("expected start to fail without an api key")
	}
}

func TestStartPropagatesAwaitFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(conversationResponse{ConversationID: "c-123"})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewAvatarClient(
		WithAPIKey("secret"),
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()),
		WithRoom(&stubRoom{err: ctx.Err()}),
	)

	if err := client.Start(context.Background(), RoomAccess{}); err == nil {
		t.Fatalf("expected start to fail when the avatar never joins")
	}
}

func TestCloseEndsConversation(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewAvatarClient(
		WithAPIKey("secret"),
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()),
	)
	client.conversationID = "c-123"

	if err := client.Close(context.Background()); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if gotPath != "/v2/conversations/c-123/end" {
		t.Fatalf("expected end conversation path, got %q", gotPath)
	}
	if client.conversationID != "" {
		t.Fatalf("expected conversation id cleared after close")
	}
}

func TestCloseWithoutConversationIsNoop(t *testing.T) {
	client := NewAvatarClient(WithAPIKey("secret"))

	if err := client.Close(context.Background()); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
}
