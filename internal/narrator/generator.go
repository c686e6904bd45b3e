package narrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nihilism-server/internal/config"
	"nihilism-server/internal/models"

	"go.uber.org/zap"
)

// Generator produces the next narrative moment for a player snapshot.
// Implementations never modify the snapshot.
type Generator interface {
	// GenerateNarrative continues the story. userInput may be nil.
	GenerateNarrative(ctx context.Context, player *models.Player, userInput *string) (models.NarrativeMoment, error)
	// ProcessChoice continues the story after the player picked choice.
	ProcessChoice(ctx context.Context, player *models.Player, choice models.Choice) (models.NarrativeMoment, error)
}

// GenerationParams are the sampling settings sent with every request.
type GenerationParams struct {
	Temperature float64
	MaxTokens   int
}

// chatClient sends one system+user exchange to a model and returns its text.
type chatClient interface {
	Chat(ctx context.Context, systemPrompt, userInput string, params GenerationParams) (string, UsageInfo, error)
	Provider() string
	Model() string
}

var _ Generator = (*LLMNarrator)(nil)

// LLMNarrator is a Generator backed by a chat model.
type LLMNarrator struct {
	client chatClient
	params GenerationParams
	logger *zap.Logger
}

func newLLMNarrator(client chatClient, params GenerationParams, logger *zap.Logger) *LLMNarrator {
	return &LLMNarrator{
		client: client,
		params: params,
		logger: logger.Named("Narrator"),
	}
}

func (n *LLMNarrator) GenerateNarrative(ctx context.Context, player *models.Player, userInput *string) (models.NarrativeMoment, error) {
	input := DefaultUserInput
	if userInput != nil && strings.TrimSpace(*userInput) != "" {
		input = *userInput
	}
	log := n.logger.With(
		zap.String("playerID", player.ID.String()),
		zap.Uint64("loop", player.CurrentLoop.Number),
		zap.String("provider", n.client.Provider()),
	)

	content, usage, err := n.client.Chat(ctx, BuildSystemPrompt(player), input, n.params)
	if err != nil {
		log.Error("Narrative generation failed", zap.Error(err))
		if errors.Is(err, models.ErrNarrativeGenerationFailed) {
			return models.NarrativeMoment{}, err
		}
		return models.NarrativeMoment{}, fmt.Errorf("%w: %v", models.ErrNarrativeGenerationFailed, err)
	}
	log.Debug("Narrative generated",
		zap.Int("promptTokens", usage.PromptTokens),
		zap.Int("completionTokens", usage.CompletionTokens),
		zap.Bool("estimated", usage.Estimated),
	)

	if _, ok := decodeResponse(content); !ok {
		narratorFallbacksTotal.WithLabelValues(n.client.Provider(), n.client.Model()).Inc()
		log.Warn("Model output is not narrative JSON, using plain narration", zap.Int("length", len(content)))
	}
	return ParseMoment(content), nil
}

func (n *LLMNarrator) ProcessChoice(ctx context.Context, player *models.Player, choice models.Choice) (models.NarrativeMoment, error) {
	prompt := ChoicePrompt(choice, player.Memory.TotalLoops)
	return n.GenerateNarrative(ctx, player, &prompt)
}

// NewGenerator picks the chat client named by cfg.AIClientType.
func NewGenerator(cfg *config.Config, logger *zap.Logger) (Generator, error) {
	params := GenerationParams{Temperature: cfg.AITemperature, MaxTokens: cfg.AIMaxTokens}

	var (
		client chatClient
		err    error
	)
	switch strings.ToLower(cfg.AIClientType) {
	case config.AIClientOpenAI:
		client = newOpenAIClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel, cfg.AITimeout, logger)
	case config.AIClientOllama:
		client, err = newOllamaClient(cfg.AIBaseURL, cfg.AIModel, cfg.AITimeout, logger)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown AI client type: %s", cfg.AIClientType)
	}

	logger.Info("Narrative generator created",
		zap.String("provider", client.Provider()),
		zap.String("model", client.Model()),
		zap.String("baseURL", cfg.AIBaseURL),
	)
	return newLLMNarrator(client, params, logger), nil
}
