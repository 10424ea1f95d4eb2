// Package speech wraps the speech-to-text and text-to-speech providers.
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
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-retryablehttp"
)

var (
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrPollTimeout         = errors.New("transcription polling timed out")
	ErrEmptyAudio          = errors.New("empty audio upload")

	errTranscriptPending = errors.New("transcript not ready")
)

const (
	statusCompleted = "completed"
	statusError     = "error"
)

type AssemblyAIOptions struct {
	BaseURL      string
	APIKey       string
	PollInterval time.Duration
	// PollTimeout bounds the whole status polling phase.
	PollTimeout time.Duration
	// Timeout applies to each HTTP round trip.
	Timeout  time.Duration
	RetryMax int
}

// AssemblyAI uploads audio and polls the transcript until it settles.
type AssemblyAI struct {
	baseURL      string
	apiKey       string
	pollInterval time.Duration
	pollTimeout  time.Duration
	httpClient   *retryablehttp.Client
	logger       *slog.Logger
}

func NewAssemblyAI(opts AssemblyAIOptions) *AssemblyAI {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.assemblyai.com"
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 5 * time.Minute
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

	return &AssemblyAI{
		baseURL:      strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:       opts.APIKey,
		pollInterval: opts.PollInterval,
		pollTimeout:  opts.PollTimeout,
		httpClient:   retryClient,
		logger:       slog.Default(),
	}
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

// Upload sends raw audio bytes and returns the provider-hosted URL.
func (a *AssemblyAI) Upload(ctx context.Context, audio io.Reader) (string, error) {
	data, err := io.ReadAll(audio)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmptyAudio
	}

	var out uploadResponse
	if err := a.do(ctx, http.MethodPost, "/v2/upload", "application/octet-stream", data, &out); err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}
	if out.UploadURL == "" {
		return "", errors.New("upload audio: empty upload_url")
	}
	return out.UploadURL, nil
}

// Transcribe submits audioURL and polls at a fixed interval until the job
// completes, fails, the poll timeout elapses or ctx is cancelled.
func (a *AssemblyAI) Transcribe(ctx context.Context, audioURL string) (string, error) {
	body, err := json.Marshal(map[string]string{"audio_url": audioURL})
	if err != nil {
		return "", err
	}

	var job transcriptResponse
	if err := a.do(ctx, http.MethodPost, "/v2/transcript", "application/json", body, &job); err != nil {
		return "", fmt.Errorf("submit transcript: %w", err)
	}
	if job.ID == "" {
		return "", errors.New("submit transcript: empty id")
	}

	pollCtx, cancel := context.WithTimeout(ctx, a.pollTimeout)
	defer cancel()

	var text string
	poll := func() error {
		var status transcriptResponse
		if err := a.do(pollCtx, http.MethodGet, "/v2/transcript/"+job.ID, "", nil, &status); err != nil {
			return err
		}
		switch status.Status {
		case statusCompleted:
			text = status.Text
			return nil
		case statusError:
			return backoff.Permanent(fmt.Errorf("%w: %s", ErrTranscriptionFailed, status.Error))
		default:
			return errTranscriptPending
		}
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(a.pollInterval), pollCtx)
	notify := func(err error, next time.Duration) {
		a.logger.Debug("transcript pending", "id", job.ID, "reason", err, "next", next)
	}

	if err := backoff.RetryNotify(poll, b, notify); err != nil {
		if ctx.Err() == nil && pollCtx.Err() != nil {
			return "", fmt.Errorf("%w after %s", ErrPollTimeout, a.pollTimeout)
		}
		return "", err
	}
	return text, nil
}

func (a *AssemblyAI) do(ctx context.Context, method, path, contentType string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("authorization", a.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.logger.Error("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
