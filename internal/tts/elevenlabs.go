package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultEndpoint = "https://api.elevenlabs.io/v1/text-to-speech/"
	DefaultVoice    = "mxTlDrtKZzOqgjtBw4hM"
	model           = "eleven_multilingual_v2"
)

type synthRequest struct {
	Text     string        `json:"text"`
	ModelID  string        `json:"model_id"`
	Settings VoiceSettings `json:"voice_settings"`
}

// ElevenLabs synthesizes mp3 speech through the ElevenLabs REST API.
type ElevenLabs struct {
	key      string
	endpoint string
	http     *http.Client
}

func NewElevenLabs(apiKey string, httpClient *http.Client) *ElevenLabs {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &ElevenLabs{key: apiKey, endpoint: DefaultEndpoint, http: httpClient}
}

// WithEndpoint replaces the base URL; the voice id is appended to it.
func (e *ElevenLabs) WithEndpoint(url string) *ElevenLabs {
	if !strings.HasSuffix(url, "/") {
		url += "/"
	}
	e.endpoint = url
	return e
}

// Synthesize returns mp3 audio for text.
func (e *ElevenLabs) Synthesize(ctx context.Context, text, voice string, emotion Emotion) ([]byte, error) {
	if voice == "" {
		voice = DefaultVoice
	}

	body, err := json.Marshal(synthRequest{Text: text, ModelID: model, Settings: Settings(emotion)})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+voice, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.key)

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("elevenlabs: %s: %s", resp.Status, bytes.TrimSpace(msg))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return audio, nil
}
