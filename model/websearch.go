package model

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const defaultSearchURL = "https://api.duckduckgo.com"

// WebSearch queries the DuckDuckGo instant-answer API for short background snippets.
type WebSearch struct {
	baseURL    string
	httpClient *retryablehttp.Client
}

func NewWebSearch(baseURL string, timeout time.Duration) *WebSearch {
	if baseURL == "" {
		baseURL = defaultSearchURL
	}
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.HTTPClient.Timeout = timeout
	retryClient.Logger = nil

	return &WebSearch{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: retryClient,
	}
}

type ddgTopic struct {
	Text   string     `json:"Text"`
	Topics []ddgTopic `json:"Topics"`
}

type ddgResponse struct {
	AbstractText  string     `json:"AbstractText"`
	Answer        string     `json:"Answer"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

// Search returns at most maxResults non-empty snippets for query.
func (w *WebSearch) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var parsed ddgResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal search response: %w", err)
	}

	var snippets []string
	add := func(s string) bool {
		s = strings.TrimSpace(s)
		if s != "" {
			snippets = append(snippets, s)
		}
		return len(snippets) >= maxResults
	}

	if add(parsed.AbstractText) || add(parsed.Answer) {
		return snippets, nil
	}
	for _, topic := range parsed.RelatedTopics {
		if add(topic.Text) {
			return snippets, nil
		}
		for _, sub := range topic.Topics {
			if add(sub.Text) {
				return snippets, nil
			}
		}
	}
	return snippets, nil
}
