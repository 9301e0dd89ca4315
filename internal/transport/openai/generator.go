package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docusort/internal/domain"
	"github.com/kailas-cloud/docusort/internal/metrics"
)

const (
	// DefaultChatModel is used when no chat model is configured.
	DefaultChatModel = "gpt-4.1-mini"

	answerTemperature = 0.2
	jsonTemperature   = 0.1
	systemPrompt      = "You are DocuSort AI. Provide grounded answers citing only the supplied excerpts. " +
		"If the answer is unknown, say so clearly."
)

// Generator produces grounded answers with chat completions.
type Generator struct {
	client *Client
	model  string
}

// NewGenerator creates a generator for model.
func NewGenerator(client *Client, model string) *Generator {
	if model == "" {
		model = DefaultChatModel
	}
	return &Generator{client: client, model: model}
}

// Generate asks the model to answer prompt from the given context block.
func (g *Generator) Generate(ctx context.Context, prompt, contextBlock string) (string, error) {
	if err := g.client.wait(ctx); err != nil {
		return "", err
	}

	resp, err := g.client.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: answerTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s", contextBlock, prompt)},
		},
	})
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues("error").Inc()
		return "", parseAPIError(err, domain.ErrGenerationUnavailable)
	}
	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("empty completion: %w", domain.ErrGenerationUnavailable)
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		metrics.GenerationRequestsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("blank completion: %w", domain.ErrGenerationUnavailable)
	}

	metrics.GenerationRequestsTotal.WithLabelValues("online").Inc()
	g.client.logger.Debug("Chat completion finished",
		zap.String("model", g.model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return answer, nil
}

// CompleteJSON asks the model for a single JSON object. The reply is returned
// verbatim for the caller to decode.
func (g *Generator) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	if err := g.client.wait(ctx); err != nil {
		return "", err
	}

	resp, err := g.client.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: jsonTemperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues("error").Inc()
		return "", parseAPIError(err, domain.ErrGenerationUnavailable)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		metrics.GenerationRequestsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("empty completion: %w", domain.ErrGenerationUnavailable)
	}

	metrics.GenerationRequestsTotal.WithLabelValues("online").Inc()
	g.client.logger.Debug("JSON completion finished",
		zap.String("model", g.model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return resp.Choices[0].Message.Content, nil
}
