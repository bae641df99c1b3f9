package tickerrisk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/goaleval/internal/domain"
)

func TestNewOpenAIClassifier_RequiresKey(t *testing.T) {
	_, err := NewOpenAIClassifier(OpenAIConfig{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestOpenAIClassifier_Research(t *testing.T) {
	var gotModel string
	var gotMessages int
	var gotSystem string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body struct {
			Model    string            `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotModel = body.Model
		gotMessages = len(body.Messages)
		if len(body.Messages) > 0 {
			gotSystem = body.Messages[0].Content
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "  TQQQ is a 3x leveraged ETF.  "}, "finish_reason": "stop"}]
		}`))
	}))
	defer server.Close()

	c, err := NewOpenAIClassifier(OpenAIConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL + "/v1",
		RatePerSec: 100,
	}, zerolog.Nop())
	require.NoError(t, err)

	answer, err := c.Research(context.Background(), "TQQQ", ResearchQuery("TQQQ"))
	require.NoError(t, err)
	assert.Equal(t, "TQQQ is a 3x leveraged ETF.", answer)
	assert.Equal(t, "gpt-4o-mini", gotModel)
	assert.Equal(t, 2, gotMessages)
	// Constrained answer format keeps negated prose out of keyword classification
	assert.Contains(t, gotSystem, "NONE")
	assert.Contains(t, gotSystem, "LEVERAGED")
}

func TestOpenAIClassifier_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer server.Close()

	c, err := NewOpenAIClassifier(OpenAIConfig{APIKey: "k", BaseURL: server.URL + "/v1"}, zerolog.Nop())
	require.NoError(t, err)

	_, err = c.Research(context.Background(), "VTI", ResearchQuery("VTI"))
	assert.ErrorIs(t, err, domain.ErrClassificationUnavailable)
}

func TestOpenAIClassifier_CancelledContext(t *testing.T) {
	c, err := NewOpenAIClassifier(OpenAIConfig{APIKey: "k", BaseURL: "http://127.0.0.1:1/v1", RatePerSec: 1}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Research(ctx, "VTI", ResearchQuery("VTI"))
	assert.ErrorIs(t, err, domain.ErrClassificationUnavailable)
}
