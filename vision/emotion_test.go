package vision

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze", r.URL.Path)
		file, header, err := r.FormFile("video")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "answer.webm", header.Filename)
		assert.Equal(t, "frames", string(data))

		_, _ = w.Write([]byte(`{
			"total_frames": 240,
			"frames_analyzed": 3,
			"emotion_analysis": [
				{"emotion": "neutral", "confidence": 0.91},
				{"emotion": "happy", "confidence": 0.66},
				{"error": "no face detected"}
			]
		}`))
	}))
	defer server.Close()

	client := NewEmotionClient(server.URL, time.Second, -1)
	got, err := client.Analyze(context.Background(), []byte("frames"), "/tmp/answer.webm")
	require.NoError(t, err)

	assert.Equal(t, 240, got.TotalFrames)
	assert.Equal(t, 3, got.FramesAnalyzed)
	require.Len(t, got.Emotions, 3)
	assert.Equal(t, "neutral", got.Emotions[0].Emotion)
	assert.InDelta(t, 0.91, got.Emotions[0].Confidence, 1e-9)
	assert.Equal(t, "no face detected", got.Emotions[2].Error)
}

func TestAnalyzeNoFrames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total_frames": 0, "frames_analyzed": 0}`))
	}))
	defer server.Close()

	got, err := NewEmotionClient(server.URL, time.Second, -1).Analyze(context.Background(), []byte("x"), "")
	require.NoError(t, err)
	assert.NotNil(t, got.Emotions)
	assert.Empty(t, got.Emotions)
}

func TestAnalyzeErrors(t *testing.T) {
	t.Run("empty video", func(t *testing.T) {
		_, err := NewEmotionClient("http://127.0.0.1:0", time.Second, -1).Analyze(context.Background(), nil, "a.mp4")
		assert.ErrorIs(t, err, ErrEmptyVideo)
	})

	t.Run("classifier rejects", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail":"Could not open video file"}`))
		}))
		defer server.Close()

		_, err := NewEmotionClient(server.URL, time.Second, -1).Analyze(context.Background(), []byte("x"), "a.mp4")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 400")
	})
}
