package agent

import (
	"context"

	"github.com/embervoice/avatar-agent/core/audio"
	"github.com/embervoice/avatar-agent/core/speechtotext"
	"github.com/embervoice/avatar-agent/core/texttospeech"
)

// SpeechToText is the contract transcription providers satisfy.
type SpeechToText interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
}

// TextToSpeech is the contract speech generation providers satisfy.
type TextToSpeech interface {
	NewSpeechGenerator(ctx context.Context, opts ...texttospeech.SpeechOption) (texttospeech.SpeechGenerator, error)
}

type SessionOption func(*Session)

func WithSpeechToText(client SpeechToText) SessionOption {
	return func(s *Session) { s.speechToText.set(client) }
}

func WithTextToSpeech(client TextToSpeech) SessionOption {
	return func(s *Session) { s.speechOutput.set(client) }
}

func WithConfig(config Config) SessionOption {
	return func(s *Session) { s.config = config }
}

type StartOptions struct {
	encodingInfo audio.EncodingInfo

	onInterimTranscription func(string)
	onTranscription        func(string)
	onTextInput            func(string)
	onSpeakingStateChanged func(bool)
	onSpeechRequested      func(string)
	onSpeechInterrupted    func()
	onSpeechEnded          func()
	onSpeechAudio          func([]byte)
}

type StartOption func(*StartOptions)

func WithEncodingInfo(encodingInfo audio.EncodingInfo) StartOption {
	return func(o *StartOptions) {
		if encodingInfo.SampleRate == 0 || encodingInfo.Format.Name() == "" {
			return
		}
		o.encodingInfo = encodingInfo
	}
}

func WithInterimTranscriptionCallback(callback func(transcript string)) StartOption {
	return func(o *StartOptions) { o.onInterimTranscription = callback }
}

func WithTranscriptionCallback(callback func(transcript string)) StartOption {
	return func(o *StartOptions) { o.onTranscription = callback }
}

func WithTextInputCallback(callback func(text string)) StartOption {
	return func(o *StartOptions) { o.onTextInput = callback }
}

func WithSpeakingStateChangedCallback(callback func(isSpeaking bool)) StartOption {
	return func(o *StartOptions) { o.onSpeakingStateChanged = callback }
}

// WithSpeechRequestedCallback observes every speech request the session
// issues, with the text about to be spoken.
func WithSpeechRequestedCallback(callback func(text string)) StartOption {
	return func(o *StartOptions) { o.onSpeechRequested = callback }
}

func WithSpeechInterruptedCallback(callback func()) StartOption {
	return func(o *StartOptions) { o.onSpeechInterrupted = callback }
}

func WithSpeechEndedCallback(callback func()) StartOption {
	return func(o *StartOptions) { o.onSpeechEnded = callback }
}

// WithSpeechAudioCallback receives generated speech audio, pcm encoded per
// the session's encoding info.
func WithSpeechAudioCallback(callback func(audio []byte)) StartOption {
	return func(o *StartOptions) { o.onSpeechAudio = callback }
}

type SayOptions struct {
	AllowInterruptions bool
}

type SayOption func(*SayOptions)

// WithoutInterruptions marks the speech request as not interruptible.
func WithoutInterruptions() SayOption {
	return func(o *SayOptions) { o.AllowInterruptions = false }
}
