package speechtotext

import (
	"time"

	"github.com/embervoice/avatar-agent/core/audio"
)

type TranscriptionOptions struct {
	InterimTranscriptionCallback func(transcript string)
	TranscriptionCallback        func(transcript string)

	SpeechStartedCallback func()
	SpeechEndedCallback   func()

	EncodingInfo audio.EncodingInfo

	// MinEndpointingDelay is the shortest silence after which the provider may
	// finalize an utterance.
	MinEndpointingDelay time.Duration
	// MaxEndpointingDelay is the silence after which an utterance is finalized
	// even if the provider is still unsure.
	MaxEndpointingDelay time.Duration
}

type TranscriptionOption func(*TranscriptionOptions)

func WithTranscriptionCallback(callback func(transcript string)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.TranscriptionCallback = callback
	}
}

func WithInterimTranscriptionCallback(callback func(transcript string)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.InterimTranscriptionCallback = callback
	}
}

func WithSpeechStartedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechStartedCallback = callback
	}
}

func WithSpeechEndedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechEndedCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.EncodingInfo = encodingInfo
	}
}

func WithEndpointingDelays(minDelay, maxDelay time.Duration) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		if minDelay > 0 {
			o.MinEndpointingDelay = minDelay
		}
		if maxDelay > 0 {
			o.MaxEndpointingDelay = maxDelay
		}
	}
}
