package agent

import "github.com/embervoice/avatar-agent/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts StartOptions) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.UserSpeechStarted:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(true)
			}
		case events.UserSpeechEnded:
			if opts.onSpeakingStateChanged != nil {
				opts.onSpeakingStateChanged(false)
			}
		case events.UserTranscriptInterim:
			if opts.onInterimTranscription != nil {
				opts.onInterimTranscription(typedEvent.Transcript)
			}
		case events.UserTranscriptFinal:
			if opts.onTranscription != nil {
				opts.onTranscription(typedEvent.Transcript)
			}
		case events.UserTextInput:
			if opts.onTextInput != nil {
				opts.onTextInput(typedEvent.Text)
			}
		case events.AssistantSpeechRequested:
			if opts.onSpeechRequested != nil {
				opts.onSpeechRequested(typedEvent.Text)
			}
		case events.AssistantSpeechInterrupted:
			if opts.onSpeechInterrupted != nil {
				opts.onSpeechInterrupted()
			}
		case events.AssistantSpeechEnded:
			if opts.onSpeechEnded != nil {
				opts.onSpeechEnded()
			}
		}
	}
}
