package cartesia

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/embervoice/avatar-agent/core/audio"
	"github.com/embervoice/avatar-agent/core/texttospeech"
)

type streamingRequest struct {
	ws *websocket.Conn
	mu sync.Mutex

	contextID string

	model   string
	voiceID string
	format  outputFormat

	options texttospeech.SpeechOptions

	textComplete bool
	cancelled    bool
	closed       bool
}

func (c *SpeechClient) NewSpeechGenerator(ctx context.Context, opts ...texttospeech.SpeechOption) (texttospeech.SpeechGenerator, error) {
	options := texttospeech.SpeechOptions{
		SpeechAudioCallback: func([]byte) {},
		SpeechEndedCallback: func() {},
		ErrorCallback:       func(error) {},
		EncodingInfo:        audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	format, err := convertEncoding(options.EncodingInfo)
	if err != nil {
		return nil, fmt.Errorf("invalid encoding: %w", err)
	}

	req := &streamingRequest{
		contextID: uuid.NewString(),
		model:     c.model,
		voiceID:   c.voiceID,
		format:    *format,
		options:   options,
	}

	if req.ws, err = connectWebsocket(); err != nil {
		return nil, fmt.Errorf("failed to open websocket: %w", err)
	}

	go req.processIncomingMessages(ctx)

	return req, nil
}

func connectWebsocket() (*websocket.Conn, error) {
	apiKey, ok := os.LookupEnv("CARTESIA_API_KEY")
	if !ok {
		return nil, fmt.Errorf("cartesia api key not found")
	}

	urlValues := url.Values{}
	urlValues.Set("api_key", apiKey)
	urlValues.Set("cartesia_version", apiVersion)

	conn, _, err := websocket.DefaultDialer.Dial(
		(&url.URL{
			Scheme: "wss",
			Host:   "api.cartesia.ai", Path: "/tts/websocket",
			RawQuery: urlValues.Encode(),
		}).String(),
		http.Header{})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to cartesia: %w", err)
	}

	return conn, nil
}

func (r *streamingRequest) processIncomingMessages(_ context.Context) {
	for {
		_, msg, err := r.ws.ReadMessage()
		if err != nil {
			if err.Error() != "websocket: close 1000 (normal)" {
				log.Printf("Websocket read error: %v", err)
			}
			_ = r.Close()
			return
		}

		if done := r.processMessage(msg); done {
			_ = r.Close()
			return
		}
	}
}

// processMessage handles a single cartesia response message. It reports
// whether the context has finished and the connection can be closed.
func (r *streamingRequest) processMessage(msg []byte) bool {
	var parsedMsg struct {
		Type      string `json:"type"`
		ContextID string `json:"context_id"`
		Data      string `json:"data"`
		Error     string `json:"error"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		log.Printf("Failed to unmarshal cartesia message: %v", err)
		return false
	}

	if parsedMsg.ContextID != "" && parsedMsg.ContextID != r.contextID {
		return false
	}

	switch parsedMsg.Type {
	case "chunk":
		chunk, err := base64.StdEncoding.DecodeString(parsedMsg.Data)
		if err != nil {
			log.Printf("Failed to decode cartesia audio chunk: %v", err)
			return false
		}
		if len(chunk) > 0 {
			r.options.SpeechAudioCallback(chunk)
		}
	case "done":
		r.options.SpeechEndedCallback()
		return true
	case "error":
		r.options.ErrorCallback(fmt.Errorf("cartesia generation error: %s", parsedMsg.Error))
		return true
	case "timestamps":
		// Word timestamps are not requested, ignore them if they show up
	}

	return false
}

type speakRequest struct {
	ModelID string `json:"model_id"`
	Voice   struct {
		Mode string `json:"mode"`
		ID   string `json:"id"`
	} `json:"voice"`
	Transcript   string       `json:"transcript"`
	OutputFormat outputFormat `json:"output_format"`
	ContextID    string       `json:"context_id"`
	Continue     bool         `json:"continue"`
}

func (r *streamingRequest) speakPayload(transcript string, continues bool) speakRequest {
	payload := speakRequest{
		ModelID:      r.model,
		Transcript:   transcript,
		OutputFormat: r.format,
		ContextID:    r.contextID,
		Continue:     continues,
	}
	payload.Voice.Mode = "id"
	payload.Voice.ID = r.voiceID
	return payload
}

func (r *streamingRequest) SendText(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("streaming request closed")
	} else if r.cancelled {
		return fmt.Errorf("streaming request cancelled")
	} else if r.textComplete {
		return fmt.Errorf("streaming request text already completed")
	}

	if err := r.sendWebsocketMessage(r.speakPayload(text, true)); err != nil {
		return fmt.Errorf("failed to send websocket speak message: %w", err)
	}
	return nil
}

func (r *streamingRequest) EndOfText() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("streaming request closed")
	} else if r.cancelled {
		return fmt.Errorf("streaming request cancelled")
	}

	r.textComplete = true

	// An empty non-continuing transcript finalizes the context, cartesia
	// responds with a done message once the remaining audio is flushed
	if err := r.sendWebsocketMessage(r.speakPayload("", false)); err != nil {
		return fmt.Errorf("failed to send websocket end of text message: %w", err)
	}
	return nil
}

func (r *streamingRequest) Cancel() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("streaming request closed")
	}

	r.cancelled = true
	if err := r.sendWebsocketMessage(struct {
		ContextID string `json:"context_id"`
		Cancel    bool   `json:"cancel"`
	}{ContextID: r.contextID, Cancel: true}); err != nil {
		return fmt.Errorf("failed to send websocket cancel message: %w", err)
	}

	return r.close()
}

func (r *streamingRequest) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.close()
}

// close finishes the request. Callers must hold r.mu.
func (r *streamingRequest) close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	if r.ws != nil {
		if err := r.ws.Close(); err != nil {
			return fmt.Errorf("failed to close websocket: %w", err)
		}
	}
	return nil
}

// sendWebsocketMessage writes one control message. Callers must hold r.mu.
func (r *streamingRequest) sendWebsocketMessage(msg any) error {
	if r.ws == nil {
		return fmt.Errorf("websocket connection closed")
	}

	if err := r.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to websocket: %w", err)
	}
	return nil
}
