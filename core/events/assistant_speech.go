package events

const (
	// KindAssistantSpeechRequested identifies an issued speech request.
	KindAssistantSpeechRequested Kind = "assistant_speech.requested"
	// KindAssistantSpeechInterrupted identifies a cut-off speech generation.
	KindAssistantSpeechInterrupted Kind = "assistant_speech.interrupted"
	// KindAssistantSpeechEnded identifies a completed speech generation.
	KindAssistantSpeechEnded Kind = "assistant_speech.ended"
)

// AssistantSpeechRequested carries an issued speech request.
type AssistantSpeechRequested struct {
	Base
	ID                 string
	Text               string
	AllowInterruptions bool
}

// NewAssistantSpeechRequested creates a speech requested event.
func NewAssistantSpeechRequested(id, text string, allowInterruptions bool) AssistantSpeechRequested {
	return AssistantSpeechRequested{
		Base:               NewBase(KindAssistantSpeechRequested),
		ID:                 id,
		Text:               text,
		AllowInterruptions: allowInterruptions,
	}
}

// AssistantSpeechInterrupted marks an in-flight speech generation being cut off.
type AssistantSpeechInterrupted struct {
	Base
	ID string
}

// NewAssistantSpeechInterrupted creates a speech interrupted event.
func NewAssistantSpeechInterrupted(id string) AssistantSpeechInterrupted {
	return AssistantSpeechInterrupted{Base: NewBase(KindAssistantSpeechInterrupted), ID: id}
}

// AssistantSpeechEnded marks a completed speech generation.
type AssistantSpeechEnded struct {
	Base
	ID string
}

// NewAssistantSpeechEnded creates a speech ended event.
func NewAssistantSpeechEnded(id string) AssistantSpeechEnded {
	return AssistantSpeechEnded{Base: NewBase(KindAssistantSpeechEnded), ID: id}
}
