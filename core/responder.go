package agent

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/embervoice/avatar-agent/core/events"
)

// speechControls is the slice of the speech output the responder drives.
type speechControls interface {
	Say(ctx context.Context, text string, opts ...SayOption) error
	Interrupt() error
}

// responder converts transcript and text input events into speech
// requests. Final input speaks immediately; partial transcripts are
// debounced until they stay quiet for the full quiet interval, coalescing
// into a single request with the latest text.
//
// Every method must be called on the session runtime goroutine. Timer
// fires re-enter through the runtime queue as ResponseDebounceElapsed
// events instead of touching state directly.
type responder struct {
	quietInterval time.Duration
	controls      speechControls
	enqueue       func(events.Event) bool

	pendingText string
	generation  uint64
	timer       *time.Timer
}

func newResponder(quietInterval time.Duration, controls speechControls, enqueue func(events.Event) bool) *responder {
	return &responder{
		quietInterval: quietInterval,
		controls:      controls,
		enqueue:       enqueue,
	}
}

func (r *responder) HandleTranscript(ctx context.Context, transcript string, isFinal bool) error {
	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" {
		return nil
	}

	if isFinal {
		return r.speakNow(ctx, trimmed)
	}

	r.pendingText = trimmed
	r.armTimer()
	return nil
}

func (r *responder) HandleTextInput(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	return r.speakNow(ctx, trimmed)
}

// HandleDebounceElapsed processes a timer fire. Fires carry the generation
// they were armed with; anything superseded in the meantime is stale and
// ignored.
func (r *responder) HandleDebounceElapsed(ctx context.Context, generation uint64) error {
	if generation != r.generation {
		return nil
	}

	text := r.pendingText
	if text == "" {
		return nil
	}

	return r.speakNow(ctx, text)
}

// speakNow interrupts whatever is playing, best effort, and issues a
// speech request for the text. It also invalidates any pending debounce so
// stale partial text cannot fire after an immediate speak.
func (r *responder) speakNow(ctx context.Context, text string) error {
	r.clearPending()

	if err := r.controls.Interrupt(); err != nil {
		// Interrupting with nothing playing is routine, not an error path
		if !errors.Is(err, ErrNoActiveSpeech) {
			logger.Debug("speech interrupt skipped", "reason", err)
		}
	}

	return r.controls.Say(ctx, text)
}

func (r *responder) armTimer() {
	r.generation++
	generation := r.generation

	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.quietInterval, func() {
		r.enqueue(events.NewResponseDebounceElapsed(generation))
	})
}

func (r *responder) clearPending() {
	r.generation++
	r.pendingText = ""
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// Stop abandons any pending debounce. Called on session shutdown; a
// pending response is simply never spoken.
func (r *responder) Stop() {
	r.clearPending()
}
