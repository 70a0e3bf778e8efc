package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	agent "github.com/embervoice/avatar-agent/core"
	"github.com/embervoice/avatar-agent/core/avatars/tavus"
	livekitroom "github.com/embervoice/avatar-agent/core/rooms/livekit"
	"github.com/embervoice/avatar-agent/core/speechtotext/deepgram"
	"github.com/embervoice/avatar-agent/core/texttospeech/cartesia"
)

var requiredEnv = []string{
	"LIVEKIT_URL",
	"LIVEKIT_API_KEY",
	"LIVEKIT_API_SECRET",
	"TAVUS_API_KEY",
	"TAVUS_REPLICA_ID",
	"TAVUS_PERSONA_ID",
}

func main() {
	textOnly := flag.Bool("text-only", false, "respond to text input only, without speech recognition")
	greeting := flag.String("greeting", "Hi there. Say something and I will repeat it back to you.", "spoken once after startup, empty to disable")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	if err := run(*textOnly, *greeting); err != nil {
		slog.Error("agent exited", "error", err)
		os.Exit(1)
	}
}

func run(textOnly bool, greeting string) error {
	// Optional local overrides, absence is fine
	_ = godotenv.Load(".env.local")

	if err := agent.RequireEnv(requiredEnv...); err != nil {
		return err
	}

	config, err := agent.ConfigFromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessionOptions := []agent.SessionOption{agent.WithConfig(config)}

	textToSpeech, err := newTextToSpeech(config.TextToSpeechModel)
	if err != nil {
		return err
	}
	sessionOptions = append(sessionOptions, agent.WithTextToSpeech(textToSpeech))

	if !textOnly {
		speechToText, err := newSpeechToText(config.SpeechToTextModel)
		if err != nil {
			return err
		}
		sessionOptions = append(sessionOptions, agent.WithSpeechToText(speechToText))
	}

	session := agent.NewSession(sessionOptions...)
	defer session.Close()
	if textOnly {
		session.DisableAudioInput()
	}

	room, err := livekitroom.Connect(ctx, os.Getenv("LIVEKIT_URL"), config.RoomName,
		livekitroom.WithIgnoredAudioIdentity(config.AvatarParticipantName),
		livekitroom.WithTextInputCallback(func(identity, text string) {
			slog.Info("text input received", "participant", identity)
			session.SendText(text)
		}),
		livekitroom.WithAudioFrameCallback(func(identity string, pcm []byte) {
			if err := session.SendAudio(pcm); err != nil {
				slog.Warn("failed to forward audio frame", "participant", identity, "error", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to room: %w", err)
	}
	defer room.Disconnect()
	slog.Info("connected to room", "room", config.RoomName)

	avatarToken, err := room.MintParticipantToken(config.AvatarParticipantName)
	if err != nil {
		return err
	}

	avatarClient := tavus.NewAvatarClient(
		tavus.WithReplicaID(os.Getenv("TAVUS_REPLICA_ID")),
		tavus.WithPersonaID(os.Getenv("TAVUS_PERSONA_ID")),
		tavus.WithParticipantName(config.AvatarParticipantName),
		tavus.WithRoom(room),
	)
	defer func() {
		if err := avatarClient.Close(context.Background()); err != nil {
			slog.Warn("failed to end avatar conversation", "error", err)
		}
	}()

	avatarSession := agent.NewAvatarSession(
		&avatarStarter{
			client: avatarClient,
			access: tavus.RoomAccess{
				ServerURL:        room.ServerURL(),
				RoomName:         room.Name(),
				ParticipantToken: avatarToken,
			},
		},
		agent.WithStartTimeout(config.AvatarStartTimeout),
	)
	if err := avatarSession.Start(ctx); err != nil {
		if errors.Is(err, agent.ErrAvatarStartTimeout) {
			return fmt.Errorf("avatar startup timed out: %w", err)
		}
		return err
	}
	slog.Info("avatar joined", "participant", config.AvatarParticipantName)

	startOptions := []agent.StartOption{
		agent.WithEncodingInfo(room.EncodingInfo()),
		agent.WithTranscriptionCallback(func(transcript string) {
			slog.Info("user said", "transcript", transcript)
		}),
		agent.WithSpeechRequestedCallback(func(text string) {
			if err := room.PublishTranscript(text); err != nil {
				slog.Warn("failed to publish transcript", "error", err)
			}
		}),
		agent.WithSpeechInterruptedCallback(func() {
			room.ClearAudioQueue()
		}),
		agent.WithSpeechAudioCallback(func(audio []byte) {
			if err := room.PublishAudio(audio); err != nil {
				slog.Warn("failed to publish audio", "error", err)
			}
		}),
	}

	if err := session.Start(ctx, startOptions...); err != nil {
		return err
	}

	if greeting != "" {
		if err := session.Say(greeting); err != nil {
			slog.Warn("failed to speak greeting", "error", err)
		}
	}

	slog.Info("agent running", "text_only", textOnly)
	<-ctx.Done()
	slog.Info("shutting down")

	return nil
}

// avatarStarter binds the room credentials the tavus client needs so it
// satisfies the avatar contract the session expects.
type avatarStarter struct {
	client *tavus.AvatarClient
	access tavus.RoomAccess
}

func (s *avatarStarter) Start(ctx context.Context) error {
	return s.client.Start(ctx, s.access)
}

func newSpeechToText(selector agent.ModelSelector) (agent.SpeechToText, error) {
	switch selector.Provider {
	case "deepgram":
		return deepgram.NewTranscriptionClient(
			deepgram.WithModel(selector.Model),
			deepgram.WithLanguage(selector.Variant),
		), nil
	default:
		return nil, fmt.Errorf("unsupported speech-to-text provider %q", selector.Provider)
	}
}

func newTextToSpeech(selector agent.ModelSelector) (agent.TextToSpeech, error) {
	switch selector.Provider {
	case "cartesia":
		return cartesia.NewSpeechClient(
			cartesia.WithModel(selector.Model),
			cartesia.WithVoiceID(selector.Variant),
		), nil
	default:
		return nil, fmt.Errorf("unsupported text-to-speech provider %q", selector.Provider)
	}
}
