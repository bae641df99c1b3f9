package tickerrisk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/aristath/goaleval/internal/domain"
)

// Classifier answers research questions about a ticker
type Classifier = domain.TickerClassifier

// The answer is keyword-classified, so the model is asked for category words
// only, or NONE, followed by a one-line description.
const researchSystemPrompt = "You are a financial research assistant. Reply on the first line with " +
	"the categories that apply to the ticker, comma separated, chosen from: LEVERAGED, INVERSE, ETN, DELISTED. " +
	"Reply NONE when none apply. Never list a category that does not apply. " +
	"On the second line give the fund's full name in a few words."

// OpenAIConfig configures the chat-completion classifier
type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string  // Optional, for compatible endpoints
	RatePerSec float64 // Requests per second; <= 0 disables throttling
}

// OpenAIClassifier researches tickers through a chat-completion model
type OpenAIClassifier struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewOpenAIClassifier creates a throttled classifier
func NewOpenAIClassifier(cfg OpenAIConfig, log zerolog.Logger) (*OpenAIClassifier, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}

	return &OpenAIClassifier{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		limiter: limiter,
		log:     log.With().Str("client", "openai").Str("model", cfg.Model).Logger(),
	}, nil
}

// Research asks the model about ticker and returns its answer text
func (c *OpenAIClassifier) Research(ctx context.Context, ticker, query string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %v", domain.ErrClassificationUnavailable, err)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: researchSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrClassificationUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned for %s", domain.ErrClassificationUnavailable, ticker)
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.log.Debug().
		Str("ticker", ticker).
		Str("finish_reason", string(resp.Choices[0].FinishReason)).
		Msg("Received classification")
	return answer, nil
}
