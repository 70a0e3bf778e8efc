package deepgram

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultModel    = "nova-3"
	defaultLanguage = "en-US"
)

type TranscriptionClient struct {
	conn   *websocket.Conn
	connMu sync.Mutex

	model    string
	language string

	lastMsgTs             time.Time
	accumulatedTranscript string
	unendedSegment        bool
}

type ClientOption func(*TranscriptionClient)

// WithModel overrides the Deepgram model requested for live transcription.
func WithModel(model string) ClientOption {
	return func(c *TranscriptionClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLanguage overrides the transcription language. Deepgram accepts "multi"
// here for multilingual transcription on models that support it.
func WithLanguage(language string) ClientOption {
	return func(c *TranscriptionClient) {
		if language != "" {
			c.language = language
		}
	}
}

func NewTranscriptionClient(opts ...ClientOption) *TranscriptionClient {
	client := &TranscriptionClient{
		model:    defaultModel,
		language: defaultLanguage,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

func (s *TranscriptionClient) Close() error {
	return s.StopStream()
}
