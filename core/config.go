package agent

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// ModelSelector identifies an inference model as "provider/model:variant".
// The variant is provider specific: a voice id for text-to-speech, a
// language for speech-to-text.
type ModelSelector struct {
	Provider string
	Model    string
	Variant  string
}

func ParseModelSelector(selector string) (ModelSelector, error) {
	provider, rest, found := strings.Cut(selector, "/")
	if !found || provider == "" {
		return ModelSelector{}, fmt.Errorf("model selector %q is missing a provider", selector)
	}

	model, variant, _ := strings.Cut(rest, ":")
	if model == "" {
		return ModelSelector{}, fmt.Errorf("model selector %q is missing a model", selector)
	}

	return ModelSelector{Provider: provider, Model: model, Variant: variant}, nil
}

func (m ModelSelector) String() string {
	if m.Variant == "" {
		return m.Provider + "/" + m.Model
	}
	return m.Provider + "/" + m.Model + ":" + m.Variant
}

type Config struct {
	// RoomName is the room the agent joins.
	RoomName string

	// QuietInterval is how long partial transcripts have to stay quiet
	// before a debounced response fires.
	QuietInterval time.Duration

	MinEndpointingDelay time.Duration
	MaxEndpointingDelay time.Duration

	// AvatarStartTimeout bounds how long avatar startup may take before
	// it surfaces as [ErrAvatarStartTimeout].
	AvatarStartTimeout time.Duration

	SpeechToTextModel ModelSelector
	TextToSpeechModel ModelSelector

	AvatarParticipantName string
}

func DefaultConfig() Config {
	return Config{
		RoomName:            "avatar-agent",
		QuietInterval:       700 * time.Millisecond,
		MinEndpointingDelay: 500 * time.Millisecond,
		MaxEndpointingDelay: 6 * time.Second,
		AvatarStartTimeout:  30 * time.Second,
		SpeechToTextModel: ModelSelector{
			Provider: "deepgram",
			Model:    "nova-3",
			Variant:  "multi",
		},
		TextToSpeechModel: ModelSelector{
			Provider: "cartesia",
			Model:    "sonic-3",
			Variant:  "9626c31c-bec5-4cca-baa8-f8ba9e84c8bc",
		},
		AvatarParticipantName: "tavus-avatar",
	}
}

// ConfigFromEnv layers the optional environment overrides over the
// defaults. Timing constants are deliberately not overridable.
func ConfigFromEnv() (Config, error) {
	config := DefaultConfig()

	if room, ok := os.LookupEnv("LIVEKIT_ROOM"); ok && room != "" {
		config.RoomName = room
	}
	if name, ok := os.LookupEnv("TAVUS_AVATAR_NAME"); ok && name != "" {
		config.AvatarParticipantName = name
	}
	if selector, ok := os.LookupEnv("STT_MODEL"); ok && selector != "" {
		parsed, err := ParseModelSelector(selector)
		if err != nil {
			return Config{}, fmt.Errorf("invalid STT_MODEL: %w", err)
		}
		config.SpeechToTextModel = parsed
	}
	if selector, ok := os.LookupEnv("TTS_MODEL"); ok && selector != "" {
		parsed, err := ParseModelSelector(selector)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TTS_MODEL: %w", err)
		}
		config.TextToSpeechModel = parsed
	}

	return config, nil
}
