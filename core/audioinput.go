package agent

import "sync/atomic"

// audioInput gates pcm delivery into the transcription client. It exists
// so text-only sessions can keep the same wiring with capture disabled.
type audioInput struct {
	enabled atomic.Bool
	forward func([]byte) error
}

func newAudioInput(forward func([]byte) error) *audioInput {
	input := &audioInput{forward: forward}
	input.enabled.Store(true)
	return input
}

func (a *audioInput) Enable() {
	if a != nil {
		a.enabled.Store(true)
	}
}

func (a *audioInput) Disable() {
	if a != nil {
		a.enabled.Store(false)
	}
}

func (a *audioInput) Deliver(audio []byte) error {
	if a == nil || a.forward == nil || !a.enabled.Load() {
		return nil
	}

	return a.forward(audio)
}
