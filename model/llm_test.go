package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLLMComplete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "test-model",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "  expanded query  "}
			}]
		}`))
	}))
	defer srv.Close()

	llm := NewLLM(LLMConfig{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model", MaxTokens: 2048})

	out, err := llm.Complete(context.Background(), ChatRequest{System: "sys", User: "hello", Temperature: 0.4})
	require.NoError(t, err)
	assert.Equal(t, "expanded query", out)

	assert.Equal(t, "test-model", got["model"])
	assert.InDelta(t, 0.4, got["temperature"], 1e-9)
	assert.InDelta(t, 2048, got["max_tokens"], 1e-9)
	messages, ok := got["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2)
}

func TestLLMCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	}))
	defer srv.Close()

	llm := NewLLM(LLMConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	_, err := llm.Complete(context.Background(), ChatRequest{User: "hi"})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestLLMCompleteProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad model","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	llm := NewLLM(LLMConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	_, err := llm.Complete(context.Background(), ChatRequest{User: "hi"})
	assert.Error(t, err)
}

func TestLLMCompleteRequestMaxTokensOverridesDefault(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	llm := NewLLM(LLMConfig{BaseURL: srv.URL, APIKey: "k", Model: "m", MaxTokens: 2048})
	_, err := llm.Complete(context.Background(), ChatRequest{User: "hi", MaxTokens: 256})
	require.NoError(t, err)
	assert.InDelta(t, 256, got["max_tokens"], 1e-9)
}
