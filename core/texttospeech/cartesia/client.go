package cartesia

const (
	defaultModel   = "sonic-3"
	defaultVoiceID = "9626c31c-bec5-4cca-baa8-f8ba9e84c8bc"

	apiVersion = "2025-04-16"
)

type SpeechClient struct {
	model   string
	voiceID string
}

type ClientOption func(*SpeechClient)

// WithModel overrides the Cartesia model used for speech generation.
func WithModel(model string) ClientOption {
	return func(c *SpeechClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithVoiceID overrides the voice the speech is generated with.
func WithVoiceID(voiceID string) ClientOption {
	return func(c *SpeechClient) {
		if voiceID != "" {
			c.voiceID = voiceID
		}
	}
}

func NewSpeechClient(opts ...ClientOption) *SpeechClient {
	client := &SpeechClient{
		model:   defaultModel,
		voiceID: defaultVoiceID,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}
