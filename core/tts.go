package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/embervoice/avatar-agent/core/audio"
	"github.com/embervoice/avatar-agent/core/events"
	"github.com/embervoice/avatar-agent/core/texttospeech"
)

var (
	// ErrNoActiveSpeech is returned by Interrupt when nothing is playing.
	ErrNoActiveSpeech = errors.New("no active speech to interrupt")
	// ErrSpeechNotInterruptible is returned by Interrupt when the active
	// speech was requested without interruptions.
	ErrSpeechNotInterruptible = errors.New("active speech does not allow interruptions")
)

type activeSpeech struct {
	id                 string
	allowInterruptions bool
	generator          texttospeech.SpeechGenerator
}

type speechOutput struct {
	// client stores the configured text-to-speech implementation.
	client TextToSpeech

	emitEvent     eventEmitter
	encodingInfo  audio.EncodingInfo
	audioCallback func([]byte)

	mu     sync.Mutex
	active *activeSpeech
}

func newSpeechOutput(client TextToSpeech) *speechOutput {
	return &speechOutput{
		client:    client,
		emitEvent: noopEventEmitter,
	}
}

func (s *speechOutput) set(client TextToSpeech) {
	if s != nil {
		s.client = client
	}
}

func (s *speechOutput) configure(emitEvent eventEmitter, encodingInfo audio.EncodingInfo, audioCallback func([]byte)) {
	if s == nil {
		return
	}

	if emitEvent != nil {
		s.emitEvent = emitEvent
	} else {
		s.emitEvent = noopEventEmitter
	}
	s.encodingInfo = encodingInfo
	s.audioCallback = audioCallback
}

func (s *speechOutput) isConfigured() bool {
	return s != nil && s.client != nil
}

// Say issues one speech request for the given text. Any speech still
// playing is cancelled first so the single active slot always holds the
// newest request.
func (s *speechOutput) Say(ctx context.Context, text string, opts ...SayOption) error {
	if !s.isConfigured() {
		return nil
	}

	options := SayOptions{AllowInterruptions: true}
	for _, opt := range opts {
		opt(&options)
	}

	id := uuid.NewString()

	generatorOptions := []texttospeech.SpeechOption{
		texttospeech.WithSpeechEndedCallback(func() { s.finish(id) }),
		texttospeech.WithErrorCallback(func(err error) {
			logger.Warn("speech generation failed", "speech_id", id, "error", err)
			s.finish(id)
		}),
	}
	if s.audioCallback != nil {
		generatorOptions = append(generatorOptions,
			texttospeech.WithSpeechAudioCallback(s.audioCallback))
	}
	if s.encodingInfo.SampleRate != 0 {
		generatorOptions = append(generatorOptions,
			texttospeech.WithEncodingInfo(s.encodingInfo))
	}

	generator, err := s.client.NewSpeechGenerator(ctx, generatorOptions...)
	if err != nil {
		return fmt.Errorf("failed to create speech generator: %w", err)
	}

	if err := generator.SendText(text); err != nil {
		_ = generator.Close()
		return fmt.Errorf("failed to send text to speech generator: %w", err)
	}
	if err := generator.EndOfText(); err != nil {
		_ = generator.Close()
		return fmt.Errorf("failed to finish speech request: %w", err)
	}

	s.mu.Lock()
	previous := s.active
	s.active = &activeSpeech{
		id:                 id,
		allowInterruptions: options.AllowInterruptions,
		generator:          generator,
	}
	s.mu.Unlock()

	if previous != nil {
		_ = previous.generator.Cancel()
	}

	s.emitEvent(events.NewAssistantSpeechRequested(id, text, options.AllowInterruptions))
	return nil
}

// Interrupt cancels the in-flight speech generation, if any.
func (s *speechOutput) Interrupt() error {
	if !s.isConfigured() {
		return ErrNoActiveSpeech
	}

	s.mu.Lock()
	active := s.active
	if active == nil {
		s.mu.Unlock()
		return ErrNoActiveSpeech
	}
	if !active.allowInterruptions {
		s.mu.Unlock()
		return ErrSpeechNotInterruptible
	}
	s.active = nil
	s.mu.Unlock()

	if err := active.generator.Cancel(); err != nil {
		return fmt.Errorf("failed to cancel speech generation: %w", err)
	}

	s.emitEvent(events.NewAssistantSpeechInterrupted(active.id))
	return nil
}

func (s *speechOutput) finish(id string) {
	s.mu.Lock()
	if s.active == nil || s.active.id != id {
		s.mu.Unlock()
		return
	}
	s.active = nil
	s.mu.Unlock()

	s.emitEvent(events.NewAssistantSpeechEnded(id))
}

func (s *speechOutput) Close() error {
	s.mu.Lock()
	active := s.active
	s.active = nil
	s.mu.Unlock()

	if active != nil {
		if err := active.generator.Close(); err != nil {
			return fmt.Errorf("failed to close speech generator: %w", err)
		}
	}
	return nil
}
