// Package vision talks to the external facial-emotion classifier.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"interview/types"
)

var ErrEmptyVideo = errors.New("empty video upload")

// EmotionClient posts a video to the classifier, which samples at most
// five evenly spaced frames and labels the dominant emotion of each.
type EmotionClient struct {
	baseURL    string
	httpClient *retryablehttp.Client
	logger     *slog.Logger
}

func NewEmotionClient(baseURL string, timeout time.Duration, retryMax int) *EmotionClient {
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = retryMax
	retryClient.HTTPClient.Timeout = timeout
	retryClient.Logger = nil

	return &EmotionClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: retryClient,
		logger:     slog.Default(),
	}
}

func (e *EmotionClient) Analyze(ctx context.Context, video []byte, filename string) (types.VideoAnalysis, error) {
	var out types.VideoAnalysis
	if len(video) == 0 {
		return out, ErrEmptyVideo
	}
	if filename == "" {
		filename = "interview.mp4"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("video", filepath.Base(filename))
	if err != nil {
		return out, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(video); err != nil {
		return out, fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return out, fmt.Errorf("close multipart: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/analyze", body.Bytes())
	if err != nil {
		return out, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return out, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			e.logger.Error("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, &out); err != nil {
		return out, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if out.Emotions == nil {
		out.Emotions = []types.FrameEmotion{}
	}
	return out, nil
}
