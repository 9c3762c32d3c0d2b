package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

const geminiAPIVersion = "v1beta"

type GeminiConfig struct {
	APIKey string
	Model  string
	// BaseURL is the API root without version, e.g. https://generativelanguage.googleapis.com/.
	// Empty means the SDK default.
	BaseURL  string
	Fallback string
	Timeout  time.Duration
}

// GeminiClient completes prompts with the Gemini API generateContent method.
type GeminiClient struct {
	models   *genai.Models
	model    string
	fallback string
	log      logrus.FieldLogger
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig, log logrus.FieldLogger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("gemini: model is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    cfg.BaseURL,
			APIVersion: geminiAPIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &GeminiClient{
		models:   client.Models,
		model:    cfg.Model,
		fallback: cfg.Fallback,
		log:      log.WithField("component", "gemini"),
	}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		if isGeminiUpstreamError(err) {
			return "", fmt.Errorf("%w: gemini: %w", ErrUpstream, err)
		}
		c.log.WithError(err).Warn("malformed response")
		return c.fallback, nil
	}

	if len(resp.Candidates) == 0 {
		c.log.Warn("no candidates")
		return c.fallback, nil
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		c.log.WithField("finish_reason", resp.Candidates[0].FinishReason).Warn("empty candidate text")
		return c.fallback, nil
	}

	return text, nil
}

// isGeminiUpstreamError reports API status errors and transport failures. Anything else
// the SDK returns comes from decoding a 2xx body.
func isGeminiUpstreamError(err error) bool {
	var apiErr genai.APIError
	var urlErr *url.Error
	return errors.As(err, &apiErr) ||
		errors.As(err, &urlErr) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
