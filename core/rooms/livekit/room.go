package livekit

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/webrtc/v4"

	"github.com/embervoice/avatar-agent/core/audio"
)

const (
	// TextInputTopic is the data channel topic text input messages arrive on.
	TextInputTopic = "agent.text_input"
	// TranscriptTopic is the data channel topic spoken responses are
	// mirrored to as text.
	TranscriptTopic = "agent.transcript"

	defaultIdentity = "echo-agent"
)

type RoomOptions struct {
	// Identity is the participant identity the agent joins the room with.
	Identity string
	// AudioFrameCallback is called with decoded pcm audio from subscribed
	// microphone tracks.
	AudioFrameCallback func(identity string, pcm []byte)
	// TextInputCallback is called for data packets on [TextInputTopic].
	TextInputCallback func(identity string, text string)
	// IgnoredAudioIdentities lists participants whose audio should not be
	// forwarded, typically the avatar worker.
	IgnoredAudioIdentities []string
}

type RoomOption func(*RoomOptions)

func WithIdentity(identity string) RoomOption {
	return func(o *RoomOptions) {
		if identity != "" {
			o.Identity = identity
		}
	}
}

func WithAudioFrameCallback(callback func(identity string, pcm []byte)) RoomOption {
	return func(o *RoomOptions) { o.AudioFrameCallback = callback }
}

func WithTextInputCallback(callback func(identity string, text string)) RoomOption {
	return func(o *RoomOptions) { o.TextInputCallback = callback }
}

func WithIgnoredAudioIdentity(identity string) RoomOption {
	return func(o *RoomOptions) {
		o.IgnoredAudioIdentities = append(o.IgnoredAudioIdentities, identity)
	}
}

type Room struct {
	room *lksdk.Room

	serverURL string
	roomName  string
	apiKey    string
	apiSecret string

	options RoomOptions

	participantsMu sync.Mutex
	participants   map[string]struct{}
	waiters        map[string][]chan struct{}

	publisher *trackPublisher
}

// Connect joins the livekit room as the agent participant. Credentials are
// taken from LIVEKIT_API_KEY and LIVEKIT_API_SECRET.
func Connect(_ context.Context, serverURL, roomName string, opts ...RoomOption) (*Room, error) {
	apiKey, ok := os.LookupEnv("LIVEKIT_API_KEY")
	if !ok {
		return nil, fmt.Errorf("livekit api key not found")
	}
	apiSecret, ok := os.LookupEnv("LIVEKIT_API_SECRET")
	if !ok {
		return nil, fmt.Errorf("livekit api secret not found")
	}

	r := &Room{
		serverURL: serverURL,
		roomName:  roomName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		options: RoomOptions{
			Identity: defaultIdentity,
		},
		participants: map[string]struct{}{},
		waiters:      map[string][]chan struct{}{},
	}
	for _, opt := range opts {
		opt(&r.options)
	}

	room, err := lksdk.ConnectToRoom(serverURL, lksdk.ConnectInfo{
		APIKey:              apiKey,
		APISecret:           apiSecret,
		RoomName:            roomName,
		ParticipantIdentity: r.options.Identity,
		ParticipantName:     r.options.Identity,
	}, r.roomCallback(), lksdk.WithAutoSubscribe(true))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to room: %w", err)
	}
	r.room = room

	for _, participant := range room.GetRemoteParticipants() {
		r.markParticipant(participant.Identity())
	}

	return r, nil
}

func (r *Room) roomCallback() *lksdk.RoomCallback {
	return &lksdk.RoomCallback{
		OnParticipantConnected: func(participant *lksdk.RemoteParticipant) {
			r.markParticipant(participant.Identity())
		},
		ParticipantCallback: lksdk.ParticipantCallback{
			OnTrackSubscribed: func(track *webrtc.TrackRemote, publication *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
				if track.Kind() != webrtc.RTPCodecTypeAudio {
					return
				}
				if publication.Source() != livekit.TrackSource_MICROPHONE {
					return
				}
				if r.audioIgnored(rp.Identity()) {
					return
				}
				go r.handleAudioTrack(track, rp.Identity())
			},
			OnDataPacket: func(data lksdk.DataPacket, params lksdk.DataReceiveParams) {
				packet, ok := data.(*lksdk.UserDataPacket)
				if !ok {
					return
				}
				if packet.Topic != TextInputTopic || r.options.TextInputCallback == nil {
					return
				}
				r.options.TextInputCallback(params.SenderIdentity, string(packet.Payload))
			},
		},
	}
}

func (r *Room) audioIgnored(identity string) bool {
	if identity == r.options.Identity {
		return true
	}
	for _, ignored := range r.options.IgnoredAudioIdentities {
		if identity == ignored {
			return true
		}
	}
	return false
}

func (r *Room) markParticipant(identity string) {
	r.participantsMu.Lock()
	defer r.participantsMu.Unlock()

	r.participants[identity] = struct{}{}
	for _, waiter := range r.waiters[identity] {
		close(waiter)
	}
	delete(r.waiters, identity)
}

// AwaitParticipant blocks until a participant with the given identity is in
// the room or the context is done.
func (r *Room) AwaitParticipant(ctx context.Context, identity string) error {
	r.participantsMu.Lock()
	if _, ok := r.participants[identity]; ok {
		r.participantsMu.Unlock()
		return nil
	}
	waiter := make(chan struct{})
	r.waiters[identity] = append(r.waiters[identity], waiter)
	r.participantsMu.Unlock()

	select {
	case <-waiter:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MintParticipantToken creates a join token for another participant of this
// room, used to let the avatar worker in.
func (r *Room) MintParticipantToken(identity string) (string, error) {
	token := auth.NewAccessToken(r.apiKey, r.apiSecret).
		SetVideoGrant(&auth.VideoGrant{
			RoomJoin: true,
			Room:     r.roomName,
		}).
		SetIdentity(identity).
		SetValidFor(time.Hour)

	jwt, err := token.ToJWT()
	if err != nil {
		return "", fmt.Errorf("failed to mint participant token: %w", err)
	}
	return jwt, nil
}

// ServerURL reports the url this room was connected through.
func (r *Room) ServerURL() string { return r.serverURL }

// Name reports the room name.
func (r *Room) Name() string { return r.roomName }

// PublishTranscript mirrors spoken text to the room over the data channel.
func (r *Room) PublishTranscript(text string) error {
	if err := r.room.LocalParticipant.PublishData([]byte(text),
		lksdk.WithDataPublishReliable(true),
		lksdk.WithDataPublishTopic(TranscriptTopic),
	); err != nil {
		return fmt.Errorf("failed to publish transcript: %w", err)
	}
	return nil
}

// PublishAudio queues pcm audio for the agent's published audio track. The
// track is created and published on first use.
func (r *Room) PublishAudio(pcm []byte) error {
	if r.publisher == nil {
		publisher, err := newTrackPublisher(r.room)
		if err != nil {
			return fmt.Errorf("failed to create audio track: %w", err)
		}
		r.publisher = publisher
	}
	return r.publisher.Write(pcm)
}

// ClearAudioQueue drops any audio that was queued but not yet sent to the
// room, used when speech is interrupted.
func (r *Room) ClearAudioQueue() {
	if r.publisher != nil {
		r.publisher.Clear()
	}
}

// EncodingInfo reports the pcm encoding this room produces and consumes.
func (r *Room) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: trackSampleRate,
		Format:     audio.EncodingLinear16,
	}
}

func (r *Room) Disconnect() {
	if r.publisher != nil {
		r.publisher.Close()
	}
	if r.room != nil {
		r.room.Disconnect()
	}
}

func logRoomError(msg string, err error) {
	log.Printf("%s: %v", msg, err)
}
