package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

var ErrEmptyText = errors.New("question text cannot be empty")

const (
	defaultVoiceID      = "JBFqnCBsd6RMkjVDRZzb"
	defaultTTSModel     = "eleven_multilingual_v2"
	defaultOutputFormat = "mp3_44100_128"
)

type ElevenLabsOptions struct {
	BaseURL  string
	APIKey   string
	VoiceID  string
	ModelID  string
	Timeout  time.Duration
	RetryMax int
}

type ElevenLabs struct {
	baseURL    string
	apiKey     string
	voiceID    string
	modelID    string
	httpClient *retryablehttp.Client
	logger     *slog.Logger
}

func NewElevenLabs(opts ElevenLabsOptions) *ElevenLabs {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.elevenlabs.io"
	}
	if opts.VoiceID == "" {
		opts.VoiceID = defaultVoiceID
	}
	if opts.ModelID == "" {
		opts.ModelID = defaultTTSModel
	}
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.RetryMax == 0 {
		opts.RetryMax = 3
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.Logger = nil

	return &ElevenLabs{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		voiceID:    opts.VoiceID,
		modelID:    opts.ModelID,
		httpClient: retryClient,
		logger:     slog.Default(),
	}
}

// Synthesize returns MP3 audio for text. An empty voiceID uses the configured voice.
func (e *ElevenLabs) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if voiceID == "" {
		voiceID = e.voiceID
	}

	body, err := json.Marshal(map[string]string{
		"text":     text,
		"model_id": e.modelID,
	})
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		e.baseURL, url.PathEscape(voiceID), defaultOutputFormat)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("TTS generation failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			e.logger.Error("Failed to close response body", "error", err)
		}
	}()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TTS generation failed with status %d: %s", resp.StatusCode, string(audio))
	}
	return audio, nil
}
