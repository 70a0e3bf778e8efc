package livekit

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hraban/opus"
	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
)

const (
	trackSampleRate = 48000
	trackChannels   = 1

	// 20ms of mono audio at 48kHz
	frameSamples  = 960
	frameDuration = 20 * time.Millisecond

	// up to 120ms per opus packet
	maxDecodedSamples = 5760
)

func (r *Room) handleAudioTrack(track *webrtc.TrackRemote, identity string) {
	if r.options.AudioFrameCallback == nil {
		return
	}

	decoder, err := opus.NewDecoder(trackSampleRate, trackChannels)
	if err != nil {
		logRoomError("Failed to create opus decoder", err)
		return
	}

	pcm := make([]int16, maxDecodedSamples)
	for {
		packet, _, err := track.ReadRTP()
		if err != nil {
			if err != io.EOF {
				logRoomError("Failed to read rtp packet", err)
			}
			return
		}
		samples, err := decodePacket(decoder, packet, pcm)
		if err != nil {
			logRoomError("Failed to decode opus frame", err)
			continue
		}
		if samples == 0 {
			continue
		}

		r.options.AudioFrameCallback(identity, samplesToBytes(pcm[:samples]))
	}
}

func decodePacket(decoder *opus.Decoder, packet *rtp.Packet, pcm []int16) (int, error) {
	if len(packet.Payload) == 0 {
		return 0, nil
	}
	return decoder.Decode(packet.Payload, pcm)
}

func samplesToBytes(pcm []int16) []byte {
	out := make([]byte, len(pcm)*2)
	for i, sample := range pcm {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}
	return out
}

func bytesToSamples(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return out
}

// trackPublisher paces queued pcm audio onto a published opus track in 20ms
// frames. A single goroutine owns the track writes so frames never
// interleave.
type trackPublisher struct {
	track   *lksdk.LocalSampleTrack
	encoder *opus.Encoder

	mu      sync.Mutex
	queue   []int16
	closeCh chan struct{}
	once    sync.Once
}

func newTrackPublisher(room *lksdk.Room) (*trackPublisher, error) {
	encoder, err := opus.NewEncoder(trackSampleRate, trackChannels, opus.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	track, err := lksdk.NewLocalSampleTrack(webrtc.RTPCodecCapability{
		MimeType:  webrtc.MimeTypeOpus,
		ClockRate: trackSampleRate,
		Channels:  trackChannels,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create local sample track: %w", err)
	}

	if _, err := room.LocalParticipant.PublishTrack(track, &lksdk.TrackPublicationOptions{
		Name:   "agent-voice",
		Source: livekit.TrackSource_MICROPHONE,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish audio track: %w", err)
	}

	publisher := &trackPublisher{
		track:   track,
		encoder: encoder,
		closeCh: make(chan struct{}),
	}
	go publisher.pump()

	return publisher, nil
}

func (p *trackPublisher) Write(pcm []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.queue = append(p.queue, bytesToSamples(pcm)...)
	return nil
}

func (p *trackPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.queue = nil
}

func (p *trackPublisher) Close() {
	p.once.Do(func() { close(p.closeCh) })
}

func (p *trackPublisher) pump() {
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	encoded := make([]byte, 4000)
	for {
		select {
		case <-p.closeCh:
			return
		case <-ticker.C:
			frame := p.nextFrame()
			if frame == nil {
				continue
			}

			n, err := p.encoder.Encode(frame, encoded)
			if err != nil {
				logRoomError("Failed to encode opus frame", err)
				continue
			}

			if err := p.track.WriteSample(media.Sample{
				Data:     append([]byte(nil), encoded[:n]...),
				Duration: frameDuration,
			}, nil); err != nil {
				logRoomError("Failed to write audio sample", err)
			}
		}
	}
}

// nextFrame pops one full frame from the queue, padding the trailing partial
// frame with silence so short utterances are not held back.
func (p *trackPublisher) nextFrame() []int16 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queue) == 0 {
		return nil
	}

	frame := make([]int16, frameSamples)
	n := copy(frame, p.queue)
	if n < frameSamples {
		p.queue = nil
	} else {
		p.queue = p.queue[frameSamples:]
	}
	return frame
}
