package narrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nihilism-server/internal/models"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

const providerOllama = "ollama"

// ollamaClient uses the native Ollama chat API.
type ollamaClient struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

func newOllamaClient(baseURL, model string, timeout time.Duration, logger *zap.Logger) (*ollamaClient, error) {
	// the native API lives at the root, not under /v1
	base := strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/v1")
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama base URL %q: %w", base, err)
	}

	return &ollamaClient{
		client:  api.NewClient(parsed, &http.Client{Timeout: timeout}),
		model:   model,
		timeout: timeout,
		logger:  logger.Named("OllamaClient"),
	}, nil
}

func (c *ollamaClient) Provider() string { return providerOllama }
func (c *ollamaClient) Model() string    { return c.model }

func (c *ollamaClient) Chat(ctx context.Context, systemPrompt, userInput string, params GenerationParams) (string, UsageInfo, error) {
	var usage UsageInfo

	messages := []api.Message{{Role: "system", Content: systemPrompt}}
	if userInput != "" {
		messages = append(messages, api.Message{Role: "user", Content: userInput})
	}
	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": params.Temperature,
			"num_predict": params.MaxTokens,
		},
	}

	requestCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		requestCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(requestCtx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(start)

	if err != nil {
		narratorRequestsTotal.WithLabelValues(providerOllama, c.model, "error").Inc()
		if errors.Is(err, context.DeadlineExceeded) {
			c.logger.Warn("Ollama request timed out", zap.Duration("timeout", c.timeout), zap.Error(err))
		} else {
			c.logger.Warn("Ollama request failed", zap.Duration("duration", duration), zap.Error(err))
		}
		return "", usage, fmt.Errorf("%w: %v", models.ErrNarrativeGenerationFailed, err)
	}
	if strings.TrimSpace(resp.Message.Content) == "" {
		narratorRequestsTotal.WithLabelValues(providerOllama, c.model, "error_empty_response").Inc()
		return "", usage, fmt.Errorf("%w: empty response", models.ErrNarrativeGenerationFailed)
	}

	narratorRequestsTotal.WithLabelValues(providerOllama, c.model, "success").Inc()
	narratorRequestDuration.WithLabelValues(providerOllama, c.model).Observe(duration.Seconds())

	usage.PromptTokens = resp.PromptEvalCount
	usage.CompletionTokens = resp.EvalCount
	observeUsage(providerOllama, c.model, usage)

	c.logger.Debug("Ollama response received",
		zap.Duration("duration", duration),
		zap.Int("length", len(resp.Message.Content)),
		zap.String("doneReason", resp.DoneReason),
	)
	return resp.Message.Content, usage, nil
}
