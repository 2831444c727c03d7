package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type ElevenLabs struct {
	BaseURL string
	APIKey  string
	VoiceID string
	HTTP    *http.Client
}

func NewElevenLabs(baseURL, apiKey, voiceID string) *ElevenLabs {
	return &ElevenLabs{
		BaseURL: baseURL,
		APIKey:  apiKey,
		VoiceID: voiceID,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

type synthesizeReq struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	body, _ := json.Marshal(synthesizeReq{Text: text, ModelID: "eleven_turbo_v2"})

	url := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=mp3_44100_64", e.BaseURL, e.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.APIKey)

	resp, err := e.HTTP.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", fmt.Errorf("tts returned %d: %s", resp.StatusCode, snippet)
	}

	const maxBytes = 10 << 20
	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return nil, "", err
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "audio/mpeg"
	}
	return audio, ct, nil
}
