package narrator

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nihilism-server/internal/models"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const providerOpenAI = "openai"

// openAIClient talks to any OpenAI-compatible chat completions endpoint.
type openAIClient struct {
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

func newOpenAIClient(baseURL, apiKey, model string, timeout time.Duration, logger *zap.Logger) *openAIClient {
	cfg := openaigo.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &openAIClient{
		client: openaigo.NewClientWithConfig(cfg),
		model:  model,
		logger: logger.Named("OpenAIClient"),
	}
}

func (c *openAIClient) Provider() string { return providerOpenAI }
func (c *openAIClient) Model() string    { return c.model }

func (c *openAIClient) Chat(ctx context.Context, systemPrompt, userInput string, params GenerationParams) (string, UsageInfo, error) {
	var usage UsageInfo

	messages := []openaigo.ChatCompletionMessage{
		{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if userInput != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{Role: openaigo.ChatMessageRoleUser, Content: userInput})
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32(params.Temperature),
		MaxTokens:   params.MaxTokens,
	})
	duration := time.Since(start)

	if err != nil {
		narratorRequestsTotal.WithLabelValues(providerOpenAI, c.model, "error").Inc()
		c.logger.Warn("Chat completion failed", zap.Error(err), zap.Duration("duration", duration))
		return "", usage, fmt.Errorf("%w: %v", models.ErrNarrativeGenerationFailed, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		narratorRequestsTotal.WithLabelValues(providerOpenAI, c.model, "error_empty_response").Inc()
		return "", usage, fmt.Errorf("%w: empty response", models.ErrNarrativeGenerationFailed)
	}

	narratorRequestsTotal.WithLabelValues(providerOpenAI, c.model, "success").Inc()
	narratorRequestDuration.WithLabelValues(providerOpenAI, c.model).Observe(duration.Seconds())

	content := resp.Choices[0].Message.Content
	if resp.Usage.TotalTokens > 0 {
		usage.PromptTokens = resp.Usage.PromptTokens
		usage.CompletionTokens = resp.Usage.CompletionTokens
	} else {
		// some compatible servers omit usage
		if n, ok := estimateTokens(c.model, systemPrompt, userInput); ok {
			usage.PromptTokens = n
			usage.CompletionTokens, _ = estimateTokens(c.model, content)
			usage.Estimated = true
		} else {
			c.logger.Debug("No tokenizer available, skipping token estimate", zap.String("model", c.model))
		}
	}
	observeUsage(providerOpenAI, c.model, usage)

	c.logger.Debug("Chat completion received",
		zap.Duration("duration", duration),
		zap.Int("length", len(content)),
	)
	return content, usage, nil
}
