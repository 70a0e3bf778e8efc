package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/jinzhu/copier"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/embervoice/avatar-agent/core/audio"
	"github.com/embervoice/avatar-agent/core/events"
)

// Session owns the event loop tying user input to spoken echo responses.
// It is an explicit object; nothing in this package lives in globals.
type Session struct {
	config Config

	runtime   *sessionRuntime
	responder *responder

	// speechToText is the STT facade used to handle optional client wiring.
	speechToText speechToText
	// speechOutput is the TTS facade owning the single active speech slot.
	speechOutput speechOutput
	audioInput   *audioInput

	startOptions StartOptions
	emitEvent    eventEmitter
	baseContext  context.Context

	closeOnce sync.Once
}

func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		config:       DefaultConfig(),
		runtime:      newSessionRuntime(),
		speechToText: *newSpeechToText(nil),
		speechOutput: *newSpeechOutput(nil),
		emitEvent:    noopEventEmitter,
		baseContext:  context.Background(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.responder = newResponder(s.config.QuietInterval, &s.speechOutput, s.runtime.enqueue)
	s.audioInput = newAudioInput(s.speechToText.SendAudio)
	s.speechToText.SetEventEmitter(func(event events.Event) {
		s.runtime.enqueue(event)
	})

	return s
}

// Start begins consuming events and, when a transcription client is
// configured, opens the transcription stream.
//
// Contract: call Start at most once per session instance.
func (s *Session) Start(ctx context.Context, opts ...StartOption) error {
	if s.runtime.isClosed() {
		return fmt.Errorf("session already closed")
	}

	s.startOptions = StartOptions{encodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(&s.startOptions)
	}

	s.baseContext = ctx
	s.emitEvent = newCallbackEventEmitter(s.startOptions)
	s.speechOutput.configure(s.emitEvent, s.startOptions.encodingInfo, s.startOptions.onSpeechAudio)
	s.runtime.configure(ctx, s.handleEvent)

	if started := s.runtime.start(); started {
		go func() {
			<-ctx.Done()
			s.Close()
		}()
	}

	if err := s.speechToText.Start(ctx, s.startOptions.encodingInfo, s.config); err != nil {
		return fmt.Errorf("failed to start speech-to-text: %w", err)
	}

	return nil
}

// handleEvent runs on the runtime goroutine, the only place response
// policy state is touched.
func (s *Session) handleEvent(ctx context.Context, event events.Event) {
	var err error
	switch typedEvent := event.(type) {
	case events.UserTranscriptInterim:
		s.emitEvent(event)
		err = s.responder.HandleTranscript(ctx, typedEvent.Transcript, false)
	case events.UserTranscriptFinal:
		s.emitEvent(event)
		err = s.responder.HandleTranscript(ctx, typedEvent.Transcript, true)
	case events.UserTextInput:
		s.emitEvent(event)
		err = s.responder.HandleTextInput(ctx, typedEvent.Text)
	case events.ResponseDebounceElapsed:
		err = s.responder.HandleDebounceElapsed(ctx, typedEvent.Generation)
	default:
		s.emitEvent(event)
	}

	if err != nil {
		recordedErr := fmt.Errorf("failed to respond to %s: %w", event.Kind(), err)
		span := trace.SpanFromContext(ctx)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
	}
}

// SendText feeds a typed text input into the session, as if it had
// arrived over the room's text input channel. It reports whether the
// event was accepted.
func (s *Session) SendText(text string) bool {
	return s.runtime.enqueue(events.NewUserTextInput(text))
}

// SendAudio feeds captured pcm audio into the transcription stream.
func (s *Session) SendAudio(audio []byte) error {
	return s.audioInput.Deliver(audio)
}

func (s *Session) EnableAudioInput()  { s.audioInput.Enable() }
func (s *Session) DisableAudioInput() { s.audioInput.Disable() }

// Say issues a speech request directly, bypassing the response policy.
// Used for the startup greeting.
func (s *Session) Say(text string, opts ...SayOption) error {
	return s.speechOutput.Say(s.baseContext, text, opts...)
}

// Interrupt cancels the speech currently playing, if any.
func (s *Session) Interrupt() error {
	return s.speechOutput.Interrupt()
}

// Config returns a point-in-time copy of the session configuration.
func (s *Session) Config() Config {
	snapshot := Config{}
	if err := copier.Copy(&snapshot, &s.config); err != nil {
		return s.config
	}
	return snapshot
}

func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.runtime.end()
		s.runtime.waitUntilEnded()
		s.responder.Stop()

		if err := s.speechToText.Close(s.baseContext); err != nil {
			recordedErr := fmt.Errorf("failed to close speech-to-text client: %w", err)
			span := trace.SpanFromContext(s.baseContext)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
		}

		if err := s.speechOutput.Close(); err != nil {
			recordedErr := fmt.Errorf("failed to close speech output: %w", err)
			span := trace.SpanFromContext(s.baseContext)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
		}
	})
}
