package tavus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

const (
	defaultBaseURL         = "https://tavusapi.com"
	defaultParticipantName = "tavus-avatar"
)

// RoomObserver reports on participants in the room the avatar is asked to
// join. AwaitParticipant blocks until a participant with the given identity
// is present or the context is done.
type RoomObserver interface {
	AwaitParticipant(ctx context.Context, identity string) error
}

// RoomAccess carries the credentials the avatar worker needs to join the
// room as its own participant.
type RoomAccess struct {
	ServerURL        string
	RoomName         string
	ParticipantToken string
}

type AvatarClient struct {
	apiKey          string
	replicaID       string
	personaID       string
	participantName string
	baseURL         string

	httpClient *http.Client
	room       RoomObserver

	conversationID  string
	conversationURL string
}

type ClientOption func(*AvatarClient)

func WithAPIKey(apiKey string) ClientOption {
	return func(c *AvatarClient) {
		if apiKey != "" {
			c.apiKey = apiKey
		}
	}
}

func WithReplicaID(replicaID string) ClientOption {
	return func(c *AvatarClient) { c.replicaID = replicaID }
}

func WithPersonaID(personaID string) ClientOption {
	return func(c *AvatarClient) { c.personaID = personaID }
}

// WithParticipantName overrides the identity the avatar worker joins the
// room with.
func WithParticipantName(name string) ClientOption {
	return func(c *AvatarClient) {
		if name != "" {
			c.participantName = name
		}
	}
}

func WithBaseURL(baseURL string) ClientOption {
	return func(c *AvatarClient) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *AvatarClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRoom attaches the room the avatar is expected to join. Without it
// Start returns as soon as the conversation is created.
func WithRoom(room RoomObserver) ClientOption {
	return func(c *AvatarClient) { c.room = room }
}

func NewAvatarClient(opts ...ClientOption) *AvatarClient {
	client := &AvatarClient{
		participantName: defaultParticipantName,
		baseURL:         defaultBaseURL,
		httpClient:      http.DefaultClient,
	}
	if apiKey, ok := os.LookupEnv("TAVUS_API_KEY"); ok {
		client.apiKey = apiKey
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// ParticipantName is the identity the avatar worker uses in the room.
func (c *AvatarClient) ParticipantName() string {
	return c.participantName
}

type conversationRequest struct {
	ReplicaID        string                 `json:"replica_id,omitempty"`
	PersonaID        string                 `json:"persona_id,omitempty"`
	ConversationName string                 `json:"conversation_name,omitempty"`
	Properties       conversationProperties `json:"properties"`
}

type conversationProperties struct {
	WsURL            string `json:"livekit_ws_url"`
	RoomName         string `json:"livekit_room_name"`
	ParticipantToken string `json:"livekit_participant_token"`
}

type conversationResponse struct {
	ConversationID  string `json:"conversation_id"`
	ConversationURL string `json:"conversation_url"`
	Status          string `json:"status"`
}

// Start creates a tavus conversation bound to the given room and, when a
// room observer is attached, waits for the avatar worker to join as a
// participant. Bounding the wait is the caller's job, through ctx.
func (c *AvatarClient) Start(ctx context.Context, access RoomAccess) error {
	if c.apiKey == "" {
		return fmt.Errorf("tavus api key not found")
	}

	body, err := json.Marshal(conversationRequest{
		ReplicaID:        c.replicaID,
		PersonaID:        c.personaID,
		ConversationName: access.RoomName,
		Properties: conversationProperties{
			WsURL:            access.ServerURL,
			RoomName:         access.RoomName,
			ParticipantToken: access.ParticipantToken,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal conversation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v2/conversations", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build conversation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to create tavus conversation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("failed to create tavus conversation: unexpected status %s", resp.Status)
	}

	var conversation conversationResponse
	if err := json.NewDecoder(resp.Body).Decode(&conversation); err != nil {
		return fmt.Errorf("failed to decode tavus conversation response: %w", err)
	}
	c.conversationID = conversation.ConversationID
	c.conversationURL = conversation.ConversationURL

	if c.room != nil {
		if err := c.room.AwaitParticipant(ctx, c.participantName); err != nil {
			return fmt.Errorf("avatar worker did not join the room: %w", err)
		}
	}

	return nil
}

// Close ends the tavus conversation if one was started.
func (c *AvatarClient) Close(ctx context.Context) error {
	if c.conversationID == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/v2/conversations/%s/end", c.baseURL, c.conversationID), nil)
	if err != nil {
		return fmt.Errorf("failed to build end conversation request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to end tavus conversation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("failed to end tavus conversation: unexpected status %s", resp.Status)
	}

	c.conversationID = ""
	return nil
}
