// Package openai adapts the OpenAI HTTP API to the embedding and answer
// generation ports.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const providerName = "openai"

// Config holds the provider connection settings.
type Config struct {
	APIKey  string
	BaseURL string
	// RateLimitRPS bounds outgoing requests per second across embeddings and
	// chat. Zero disables limiting.
	RateLimitRPS float64
	Logger       *zap.Logger
}

// Client is a rate-limited OpenAI API client shared by Embedder and Generator.
type Client struct {
	api     *openai.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient builds a client. An empty BaseURL keeps the public OpenAI endpoint.
func NewClient(cfg *Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimitRPS > 0 {
		burst := max(int(cfg.RateLimitRPS), 1)
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		api:     openai.NewClientWithConfig(clientCfg),
		limiter: limiter,
		logger:  log,
	}
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError turns a go-openai error into a readable message wrapping sentinel.
func parseAPIError(err, sentinel error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("openai API error %d: %s: %w", reqErr.HTTPStatusCode, detail, sentinel)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("openai API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, sentinel)
	}

	return fmt.Errorf("openai request failed: %v: %w", err, sentinel)
}

// extractDetail reads the "detail" field some OpenAI-compatible gateways return.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		return parsed.Detail
	}
	return ""
}
