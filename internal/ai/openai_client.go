package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

type OpenAIConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the API root, e.g. Gemini's OpenAI-compatible endpoint.
	BaseURL  string
	Fallback string
}

type OpenAIClient struct {
	client   *openai.Client
	model    string
	fallback string
	log      logrus.FieldLogger
}

func NewOpenAIClient(cfg OpenAIConfig, log logrus.FieldLogger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &OpenAIClient{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    model,
		fallback: cfg.Fallback,
		log:      log.WithField("component", "openai"),
	}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		if isOpenAIUpstreamError(err) {
			return "", fmt.Errorf("%w: openai: %w", ErrUpstream, err)
		}
		c.log.WithError(err).Warn("malformed response")
		return c.fallback, nil
	}

	if len(resp.Choices) == 0 {
		c.log.Warn("empty choices")
		return c.fallback, nil
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		c.log.Warn("empty completion text")
		return c.fallback, nil
	}

	c.log.WithField("chars", len([]rune(text))).Debug("completion received")
	return text, nil
}

// isOpenAIUpstreamError reports status errors and transport failures. The client returns
// decoding errors of a 2xx body unwrapped, and those are answered with the fallback text.
func isOpenAIUpstreamError(err error) bool {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	var urlErr *url.Error
	var netErr net.Error
	return errors.As(err, &apiErr) ||
		errors.As(err, &reqErr) ||
		errors.As(err, &urlErr) ||
		errors.As(err, &netErr) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
