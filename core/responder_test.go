package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/embervoice/avatar-agent/core/events"
)

type stubSpeechControls struct {
	said         []string
	interrupts   int
	interruptErr error
	sayErr       error
}

func (c *stubSpeechControls) Say(_ context.Context, text string, _ ...SayOption) error {
	if c.sayErr != nil {
		return c.sayErr
	}
	c.said = append(c.said, text)
	return nil
}

func (c *stubSpeechControls) Interrupt() error {
	c.interrupts++
	return c.interruptErr
}

func newTestResponder(quietInterval time.Duration, controls speechControls) (*responder, chan events.Event) {
	fires := make(chan events.Event, 8)
	r := newResponder(quietInterval, controls, func(event events.Event) bool {
		fires <- event
		return true
	})
	return r, fires
}

func awaitFire(t *testing.T, fires chan events.Event) events.ResponseDebounceElapsed {
	t.Helper()
	select {
	case event := <-fires:
		fire, ok := event.(events.ResponseDebounceElapsed)
		if !ok {
			t.Fatalf("expected a debounce fire, got %T", event)
		}
		return fire
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a debounce fire within the quiet interval")
		return events.ResponseDebounceElapsed{}
	}
}

func TestResponderDiscardsBlankInput(t *testing.T) {
	controls := &stubSpeechControls{}
	r, _ := newTestResponder(20*time.Millisecond, controls)

	ctx := context.Background()
	for _, text := range []string{"", "   ", "\n\t"} {
		if err := r.HandleTextInput(ctx, text); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := r.HandleTranscript(ctx, text, true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := r.HandleTranscript(ctx, text, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(controls.said) != 0 {
		t.Fatalf("expected no speech requests for blank input, got %v", controls.said)
	}
	if controls.interrupts != 0 {
		t.Fatalf("expected no interrupts for blank input, got %d", controls.interrupts)
	}
	if r.timer != nil {
		t.Fatalf("expected no timer armed for blank partials")
	}
}

func TestResponderCoalescesPartialsIntoLatestText(t *testing.T) {
	controls := &stubSpeechControls{}
	r, fires := newTestResponder(60*time.Millisecond, controls)

	ctx := context.Background()
	for _, partial := range []string{"h", "he", "hello"} {
		if err := r.HandleTranscript(ctx, partial, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	fire := awaitFire(t, fires)
	if err := r.HandleDebounceElapsed(ctx, fire.Generation); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(controls.said) != 1 || controls.said[0] != "hello" {
		t.Fatalf("expected one speech request with the latest text, got %v", controls.said)
	}

	// Earlier timers were superseded, no further fire may arrive
	select {
	case event := <-fires:
		t.Fatalf("unexpected extra fire: %v", event)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestResponderSpeaksFinalTranscriptImmediately(t *testing.T) {
	controls := &stubSpeechControls{}
	r, _ := newTestResponder(time.Hour, controls)

	if err := r.HandleTranscript(context.Background(), "  hi  ", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(controls.said) != 1 || controls.said[0] != "hi" {
		t.Fatalf("expected an immediate trimmed speech request, got %v", controls.said)
	}
	if r.timer != nil {
		t.Fatalf("expected no timer for a final transcript")
	}
}

func TestResponderImmediateSpeakInvalidatesPendingDebounce(t *testing.T) {
	controls := &stubSpeechControls{}
	r, fires := newTestResponder(40*time.Millisecond, controls)

	ctx := context.Background()
	if err := r.HandleTranscript(ctx, "hel", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pendingGeneration := r.generation

	if err := r.HandleTextInput(ctx, "hello there"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(controls.said) != 1 || controls.said[0] != "hello there" {
		t.Fatalf("expected the immediate speak, got %v", controls.said)
	}

	// A stale fire that slipped into the queue before the cancel is ignored
	if err := r.HandleDebounceElapsed(ctx, pendingGeneration); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(controls.said) != 1 {
		t.Fatalf("expected stale partial text not to double-fire, got %v", controls.said)
	}

	select {
	case <-fires:
		// A fire racing the stop is tolerated, it must just stay stale
		if len(controls.said) != 1 {
			t.Fatalf("expected no speech from a raced fire")
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestResponderSwallowsInterruptFailures(t *testing.T) {
	for _, interruptErr := range []error{ErrNoActiveSpeech, ErrSpeechNotInterruptible, fmt.Errorf("transport broke")} {
		controls := &stubSpeechControls{interruptErr: interruptErr}
		r, _ := newTestResponder(time.Hour, controls)

		if err := r.HandleTextInput(context.Background(), "hi"); err != nil {
			t.Fatalf("expected interrupt failure %v to be swallowed, got %v", interruptErr, err)
		}
		if len(controls.said) != 1 || controls.said[0] != "hi" {
			t.Fatalf("expected the speech request despite interrupt failure, got %v", controls.said)
		}
	}
}

func TestResponderPropagatesSpeechRequestFailure(t *testing.T) {
	sayErr := fmt.Errorf("generator unavailable")
	controls := &stubSpeechControls{sayErr: sayErr}
	r, _ := newTestResponder(time.Hour, controls)

	if err := r.HandleTextInput(context.Background(), "hi"); !errors.Is(err, sayErr) {
		t.Fatalf("expected the speech request failure to propagate, got %v", err)
	}
}

func TestResponderInterruptsBeforeSpeaking(t *testing.T) {
	controls := &stubSpeechControls{}
	r, _ := newTestResponder(time.Hour, controls)

	if err := r.HandleTranscript(context.Background(), "hi", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if controls.interrupts != 1 {
		t.Fatalf("expected one interrupt before speaking, got %d", controls.interrupts)
	}
}

func TestResponderStopAbandonsPendingResponse(t *testing.T) {
	controls := &stubSpeechControls{}
	r, _ := newTestResponder(30*time.Millisecond, controls)

	ctx := context.Background()
	if err := r.HandleTranscript(ctx, "hanging", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	generation := r.generation
	r.Stop()

	if err := r.HandleDebounceElapsed(ctx, generation); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(controls.said) != 0 {
		t.Fatalf("expected no speech after stop, got %v", controls.said)
	}
}
