package texttospeech

import "github.com/embervoice/avatar-agent/core/audio"

type SpeechOptions struct {
	// SpeechAudioCallback is called when the TTS client produces audio
	SpeechAudioCallback func(audio []byte)
	// SpeechEndedCallback is called when the TTS client has finished producing
	// speech for the request
	SpeechEndedCallback func()
	// ErrorCallback is called when the TTS client encounters an error, this
	// usually means the generation has been cancelled
	ErrorCallback func(error)

	EncodingInfo audio.EncodingInfo
}

type SpeechOption func(*SpeechOptions)

func WithSpeechAudioCallback(callback func([]byte)) SpeechOption {
	return func(o *SpeechOptions) { o.SpeechAudioCallback = callback }
}

func WithSpeechEndedCallback(callback func()) SpeechOption {
	return func(o *SpeechOptions) { o.SpeechEndedCallback = callback }
}

func WithErrorCallback(callback func(error)) SpeechOption {
	return func(o *SpeechOptions) { o.ErrorCallback = callback }
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) SpeechOption {
	return func(o *SpeechOptions) {
		if encodingInfo.SampleRate == 0 || encodingInfo.Format.Name() == "" {
			return
		}

		o.EncodingInfo = encodingInfo
	}
}

type SpeechGenerator interface {
	// SendText sends text to the generator. It is guaranteed that the speech
	// will be generated in the order text is sent.
	//
	// SendText will error if EndOfText, Cancel or Close has been called.
	SendText(string) error
	// EndOfText signals that no more text will be sent. After EndOfText is
	// called the generator closes itself once all the speech has been
	// generated.
	//
	// EndOfText will error if Cancel or Close has been called.
	EndOfText() error
	// Cancel immediately cancels further speech generation. It also closes
	// the generator.
	//
	// Cancel will error if Close has been called.
	Cancel() error
	// Close immediately closes the generator. It is guaranteed that no more
	// speech will be produced after this call.
	//
	// Repeated calls to Close are ignored.
	Close() error
}
