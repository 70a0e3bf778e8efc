package agent

import (
	"context"
	"testing"
	"time"

	"github.com/embervoice/avatar-agent/core/audio"
	"github.com/embervoice/avatar-agent/core/events"
	"github.com/embervoice/avatar-agent/core/speechtotext"
)

type stubSTTClient struct {
	options   speechtotext.TranscriptionOptions
	started   bool
	sentAudio [][]byte
	closed    bool
}

func (c *stubSTTClient) Transcribe(_ context.Context, opts ...speechtotext.TranscriptionOption) error {
	for _, opt := range opts {
		opt(&c.options)
	}
	c.started = true
	return nil
}

func (c *stubSTTClient) SendAudio(audio []byte) error {
	c.sentAudio = append(c.sentAudio, audio)
	return nil
}

func (c *stubSTTClient) Close() error {
	c.closed = true
	return nil
}

func TestSpeechToTextBridgesCallbacksToEvents(t *testing.T) {
	client := &stubSTTClient{}
	facade := newSpeechToText(client)

	emitted := []events.Event{}
	facade.SetEventEmitter(func(event events.Event) { emitted = append(emitted, event) })

	if err := facade.Start(context.Background(), audio.GetDefaultEncodingInfo(), DefaultConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !client.started {
		t.Fatalf("expected the transcription client to be started")
	}

	client.options.SpeechStartedCallback()
	client.options.InterimTranscriptionCallback("hel")
	client.options.TranscriptionCallback("hello")
	client.options.SpeechEndedCallback()

	wantKinds := []events.Kind{
		events.KindUserSpeechStarted,
		events.KindUserTranscriptInterim,
		events.KindUserTranscriptFinal,
		events.KindUserSpeechEnded,
	}
	if len(emitted) != len(wantKinds) {
		t.Fatalf("expected %d events, got %d", len(wantKinds), len(emitted))
	}
	for i, kind := range wantKinds {
		if emitted[i].Kind() != kind {
			t.Fatalf("expected event %d to be %s, got %s", i, kind, emitted[i].Kind())
		}
	}

	if interim, ok := emitted[1].(events.UserTranscriptInterim); !ok || interim.Transcript != "hel" {
		t.Fatalf("expected interim transcript to carry the text, got %+v", emitted[1])
	}
	if final, ok := emitted[2].(events.UserTranscriptFinal); !ok || final.Transcript != "hello" {
		t.Fatalf("expected final transcript to carry the text, got %+v", emitted[2])
	}
}

func TestSpeechToTextForwardsEndpointingDelays(t *testing.T) {
	client := &stubSTTClient{}
	facade := newSpeechToText(client)

	if err := facade.Start(context.Background(), audio.GetDefaultEncodingInfo(), DefaultConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if client.options.MinEndpointingDelay != 500*time.Millisecond {
		t.Fatalf("expected 0.5s min endpointing delay, got %v", client.options.MinEndpointingDelay)
	}
	if client.options.MaxEndpointingDelay != 6*time.Second {
		t.Fatalf("expected 6s max endpointing delay, got %v", client.options.MaxEndpointingDelay)
	}
}

func TestSpeechToTextPassesAudioThrough(t *testing.T) {
	client := &stubSTTClient{}
	facade := newSpeechToText(client)

	if err := facade.SendAudio([]byte{1, 2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.sentAudio) != 1 {
		t.Fatalf("expected one audio frame forwarded, got %d", len(client.sentAudio))
	}
}

func TestSpeechToTextWithoutClientIsNoop(t *testing.T) {
	facade := newSpeechToText(nil)

	if err := facade.Start(context.Background(), audio.GetDefaultEncodingInfo(), DefaultConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := facade.SendAudio([]byte{1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := facade.Close(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSpeechToTextCloseClosesClient(t *testing.T) {
	client := &stubSTTClient{}
	facade := newSpeechToText(client)

	if err := facade.Close(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !client.closed {
		t.Fatalf("expected the client to be closed")
	}
}
