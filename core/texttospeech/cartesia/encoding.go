package cartesia

import (
	"fmt"

	"github.com/embervoice/avatar-agent/core/audio"
)

type outputFormat struct {
	Container  string `json:"container"`
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
}

func convertEncoding(encoding audio.EncodingInfo) (*outputFormat, error) {
	format := outputFormat{Container: "raw"}
	switch encoding.SampleRate {
	case 8000, 16000, 22050, 24000, 44100, 48000:
		format.SampleRate = encoding.SampleRate
	default:
		return nil, fmt.Errorf("unsupported sample rate")
	}

	switch encoding.Format {
	case audio.EncodingLinear16:
		format.Encoding = "pcm_s16le"
	case audio.EncodingALaw:
		format.Encoding = "pcm_alaw"
		if format.SampleRate != 8000 {
			return nil, fmt.Errorf("unsupported sample rate for alaw encoding")
		}
	case audio.EncodingMulaw:
		format.Encoding = "pcm_mulaw"
		if format.SampleRate != 8000 {
			return nil, fmt.Errorf("unsupported sample rate for mulaw encoding")
		}
	default:
		return nil, fmt.Errorf("unsupported encoding")
	}

	return &format, nil
}
