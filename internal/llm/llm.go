// Package llm is the typed transport to an external OpenAI-compatible
// chat-completion endpoint. Failures never surface as errors: any network,
// provider, timeout, or malformed-response condition is absorbed into a
// well-formed sentinel so higher layers observe degraded-but-valid results.
package llm

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"medcouncil/internal/config"
	"medcouncil/internal/metrics"
)

// SentinelResponse encodes an empty parse. It is what callers receive when
// a completion could not be obtained.
const SentinelResponse = `{"differentials":[],"next_steps":[],"confidence":0,"red_flag":false}`

var errNoChoices = errors.New("provider returned no choices")

// Message is one chat turn.
type Message struct {
	Role    string
	Content string
}

// Caller performs a single chat completion. Implementations must be safe
// for concurrent use and must not impose cross-call ordering.
type Caller interface {
	Call(ctx context.Context, model string, messages []Message, temperature float32, maxTokens int) string
}

// Client is the production Caller backed by go-openai. Concurrency is
// bounded by a semaphore so a burst of council requests cannot exhaust the
// provider connection budget.
type Client struct {
	api     *openai.Client
	log     zerolog.Logger
	timeout time.Duration
	sem     chan struct{}
}

// NewClient builds a Client from transport settings.
func NewClient(cfg config.LLMSettings, log zerolog.Logger) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	concurrency := cfg.MaxConcurrency
	if concurrency <= 0 {
		concurrency = 8
	}

	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		log:     log,
		timeout: timeout,
		sem:     make(chan struct{}, concurrency),
	}
}

// Call performs one chat completion and returns the message text. On any
// failure it returns SentinelResponse.
func (c *Client) Call(ctx context.Context, model string, messages []Message, temperature float32, maxTokens int) string {
	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		c.degraded(model, ctx.Err())
		return SentinelResponse
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(callCtx, req)
	if err != nil {
		c.degraded(model, err)
		return SentinelResponse
	}
	if len(resp.Choices) == 0 {
		c.degraded(model, errNoChoices)
		return SentinelResponse
	}
	return resp.Choices[0].Message.Content
}

func (c *Client) degraded(model string, err error) {
	metrics.LLMDegradations.Inc()
	c.log.Warn().Err(err).Str("model", model).Msg("chat completion degraded to sentinel")
}
