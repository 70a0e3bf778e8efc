package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/embervoice/avatar-agent/core/texttospeech"
)

type recordingTTS struct {
	mu        sync.Mutex
	said      []string
	cancelled int
}

func (c *recordingTTS) NewSpeechGenerator(_ context.Context, opts ...texttospeech.SpeechOption) (texttospeech.SpeechGenerator, error) {
	options := texttospeech.SpeechOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	return &recordingGenerator{client: c}, nil
}

func (c *recordingTTS) spoken() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.said...)
}

type recordingGenerator struct {
	client *recordingTTS
}

func (g *recordingGenerator) SendText(text string) error {
	g.client.mu.Lock()
	defer g.client.mu.Unlock()
	g.client.said = append(g.client.said, text)
	return nil
}

func (g *recordingGenerator) EndOfText() error { return nil }

func (g *recordingGenerator) Cancel() error {
	g.client.mu.Lock()
	defer g.client.mu.Unlock()
	g.client.cancelled++
	return nil
}

func (g *recordingGenerator) Close() error { return nil }

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}

func TestSessionEchoesTextInputImmediately(t *testing.T) {
	tts := &recordingTTS{}
	session := NewSession(WithTextToSpeech(tts))
	defer session.Close()

	requestedMu := sync.Mutex{}
	requested := []string{}
	if err := session.Start(context.Background(),
		WithSpeechRequestedCallback(func(text string) {
			requestedMu.Lock()
			defer requestedMu.Unlock()
			requested = append(requested, text)
		}),
	); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if accepted := session.SendText("  hi  "); !accepted {
		t.Fatalf("expected the text input to be accepted")
	}

	waitFor(t, func() bool { return len(tts.spoken()) == 1 })
	if spoken := tts.spoken(); spoken[0] != "hi" {
		t.Fatalf("expected the trimmed text to be spoken, got %v", spoken)
	}
	waitFor(t, func() bool {
		requestedMu.Lock()
		defer requestedMu.Unlock()
		return len(requested) == 1 && requested[0] == "hi"
	})
}

func TestSessionDebouncesInterimTranscripts(t *testing.T) {
	config := DefaultConfig()
	config.QuietInterval = 40 * time.Millisecond

	tts := &recordingTTS{}
	stt := &stubSTTClient{}
	session := NewSession(
		WithConfig(config),
		WithTextToSpeech(tts),
		WithSpeechToText(stt),
	)
	defer session.Close()

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stt.options.InterimTranscriptionCallback("h")
	stt.options.InterimTranscriptionCallback("he")
	stt.options.InterimTranscriptionCallback("hello")

	waitFor(t, func() bool { return len(tts.spoken()) == 1 })
	if spoken := tts.spoken(); spoken[0] != "hello" {
		t.Fatalf("expected one coalesced response with the latest text, got %v", spoken)
	}

	// Quiesce long enough for any stray timer to have fired
	time.Sleep(150 * time.Millisecond)
	if spoken := tts.spoken(); len(spoken) != 1 {
		t.Fatalf("expected exactly one response, got %v", spoken)
	}
}

func TestSessionFinalTranscriptSupersedesPendingDebounce(t *testing.T) {
	config := DefaultConfig()
	config.QuietInterval = 60 * time.Millisecond

	tts := &recordingTTS{}
	stt := &stubSTTClient{}
	session := NewSession(
		WithConfig(config),
		WithTextToSpeech(tts),
		WithSpeechToText(stt),
	)
	defer session.Close()

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stt.options.InterimTranscriptionCallback("hel")
	stt.options.TranscriptionCallback("hello there")

	waitFor(t, func() bool { return len(tts.spoken()) == 1 })
	if spoken := tts.spoken(); spoken[0] != "hello there" {
		t.Fatalf("expected the final transcript spoken, got %v", spoken)
	}

	time.Sleep(200 * time.Millisecond)
	if spoken := tts.spoken(); len(spoken) != 1 {
		t.Fatalf("expected no stale debounced response, got %v", spoken)
	}
}

func TestSessionDiscardsBlankTextInput(t *testing.T) {
	tts := &recordingTTS{}
	session := NewSession(WithTextToSpeech(tts))
	defer session.Close()

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session.SendText("   ")
	time.Sleep(50 * time.Millisecond)

	if spoken := tts.spoken(); len(spoken) != 0 {
		t.Fatalf("expected no response to blank input, got %v", spoken)
	}
}

func TestSessionSayBypassesPolicy(t *testing.T) {
	tts := &recordingTTS{}
	session := NewSession(WithTextToSpeech(tts))
	defer session.Close()

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := session.Say("welcome"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spoken := tts.spoken(); len(spoken) != 1 || spoken[0] != "welcome" {
		t.Fatalf("expected the greeting spoken immediately, got %v", spoken)
	}
}

func TestSessionRejectsInputAfterClose(t *testing.T) {
	session := NewSession(WithTextToSpeech(&recordingTTS{}))

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	session.Close()

	if accepted := session.SendText("hi"); accepted {
		t.Fatalf("expected input to be rejected after close")
	}
	if err := session.Start(context.Background()); err == nil {
		t.Fatalf("expected restart to be rejected")
	}
}

func TestSessionAudioInputGate(t *testing.T) {
	stt := &stubSTTClient{}
	session := NewSession(WithSpeechToText(stt))
	defer session.Close()

	if err := session.SendAudio([]byte{1, 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stt.sentAudio) != 1 {
		t.Fatalf("expected audio forwarded while enabled, got %d frames", len(stt.sentAudio))
	}

	session.DisableAudioInput()
	if err := session.SendAudio([]byte{3, 4}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stt.sentAudio) != 1 {
		t.Fatalf("expected audio dropped while disabled, got %d frames", len(stt.sentAudio))
	}
}

func TestSessionConfigSnapshot(t *testing.T) {
	session := NewSession()

	snapshot := session.Config()
	if snapshot.QuietInterval != DefaultConfig().QuietInterval {
		t.Fatalf("expected the default quiet interval, got %v", snapshot.QuietInterval)
	}

	snapshot.RoomName = "mutated"
	if session.Config().RoomName == "mutated" {
		t.Fatalf("expected the snapshot to be detached from session state")
	}
}
