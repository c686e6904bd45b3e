package narrator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nihilism-server/internal/config"
	"nihilism-server/internal/game"
	"nihilism-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const validJSON = `{
  "text": "The streetlight flickers. Someone is waiting.",
  "speaker": "The Stranger",
  "mood": "dark",
  "choices": [
    {"id": "approach", "text": "Approach them", "consequence_hint": "They know your name"},
    {"id": "walk_away", "text": "Walk away", "consequence_hint": null}
  ]
}`

func TestParseMoment(t *testing.T) {
	t.Run("valid json", func(t *testing.T) {
		m := ParseMoment(validJSON)

		assert.NotEqual(t, uuid.Nil, m.ID)
		assert.False(t, m.Timestamp.IsZero())
		assert.Equal(t, "The streetlight flickers. Someone is waiting.", m.Text)
		require.NotNil(t, m.Speaker)
		assert.Equal(t, "The Stranger", *m.Speaker)
		assert.Equal(t, "dark", m.Mood)
		require.Len(t, m.Choices, 2)
		assert.Equal(t, "approach", m.Choices[0].ID)
		assert.Equal(t, "They know your name", *m.Choices[0].ConsequenceHint)
		assert.Nil(t, m.Choices[1].ConsequenceHint)
	})

	t.Run("fenced json with chatter", func(t *testing.T) {
		m := ParseMoment("Here you go:\n```json\n" + validJSON + "\n```")
		assert.Equal(t, "dark", m.Mood)
		assert.Len(t, m.Choices, 2)
	})

	t.Run("missing mood defaults to neutral", func(t *testing.T) {
		m := ParseMoment(`{"text": "Silence.", "speaker": "", "choices": [{"id": "wait", "text": "Wait"}]}`)
		assert.Equal(t, "neutral", m.Mood)
		assert.Nil(t, m.Speaker)
	})

	fallbacks := map[string]string{
		"plain prose":    "You wake in the same bed again.",
		"broken json":    `{"text": "half`,
		"missing text":   `{"mood": "dark", "choices": []}`,
		"missing choice": `{"text": "A door."}`,
	}
	for name, raw := range fallbacks {
		t.Run("fallback "+name, func(t *testing.T) {
			m := ParseMoment(raw)
			assert.Equal(t, raw, m.Text)
			assert.Equal(t, "neutral", m.Mood)
			assert.Nil(t, m.Speaker)
			require.Len(t, m.Choices, 2)
			assert.Equal(t, "continue", m.Choices[0].ID)
			assert.Equal(t, "Continue...", m.Choices[0].Text)
			assert.Equal(t, "reset", m.Choices[1].ID)
			assert.Equal(t, "End this iteration", *m.Choices[1].ConsequenceHint)
			assert.NoError(t, game.ValidateMoment(m))
		})
	}
}

func TestPrompts(t *testing.T) {
	p := game.NewPlayer()
	game.RecordChoice(p, "help_stranger", false)

	prompt := BuildSystemPrompt(p)
	assert.Contains(t, prompt, "PLAYER STATE:\nLoop #1\nNihilism Score: -3 (Balanced on the edge)\n\nChoices this loop:\n- help_stranger\n\nYOUR ROLE:")
	assert.Contains(t, prompt, `"choices": [`)

	p.Memory.TotalLoops = 7
	assert.Equal(t,
		"The player chose: 'Run'. Continue the narrative based on this choice. Remember, you know everything they've done across all 7 loops.",
		ChoicePrompt(models.Choice{ID: "run", Text: "Run"}, p.Memory.TotalLoops),
	)
	assert.Contains(t, ChoicePrompt(models.Choice{ID: "kill_guard"}, 1), "The player chose: 'kill_guard'.")
}

type fakeChat struct {
	system, user string
	params       GenerationParams
	reply        string
	err          error
}

func (f *fakeChat) Chat(_ context.Context, systemPrompt, userInput string, params GenerationParams) (string, UsageInfo, error) {
	f.system, f.user, f.params = systemPrompt, userInput, params
	return f.reply, UsageInfo{PromptTokens: 10, CompletionTokens: 5}, f.err
}
func (f *fakeChat) Provider() string { return "fake" }
func (f *fakeChat) Model() string    { return "fake-model" }

func TestLLMNarrator(t *testing.T) {
	params := GenerationParams{Temperature: 0.8, MaxTokens: 500}

	t.Run("default input", func(t *testing.T) {
		fc := &fakeChat{reply: validJSON}
		n := newLLMNarrator(fc, params, zap.NewNop())
		p := game.NewPlayer()

		m, err := n.GenerateNarrative(context.Background(), p, nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultUserInput, fc.user)
		assert.Equal(t, BuildSystemPrompt(p), fc.system)
		assert.Equal(t, params, fc.params)
		assert.Equal(t, "dark", m.Mood)
	})

	t.Run("process choice", func(t *testing.T) {
		fc := &fakeChat{reply: "just prose"}
		n := newLLMNarrator(fc, params, zap.NewNop())
		p := game.NewPlayer()
		p.Memory.TotalLoops = 2

		m, err := n.ProcessChoice(context.Background(), p, models.Choice{ID: "stay", Text: "Stay"})
		require.NoError(t, err)
		assert.Contains(t, fc.user, "The player chose: 'Stay'")
		assert.Contains(t, fc.user, "across all 2 loops")
		assert.Equal(t, "just prose", m.Text)
	})

	t.Run("client error is wrapped", func(t *testing.T) {
		fc := &fakeChat{err: errors.New("connection refused")}
		n := newLLMNarrator(fc, params, zap.NewNop())

		_, err := n.GenerateNarrative(context.Background(), game.NewPlayer(), nil)
		assert.ErrorIs(t, err, models.ErrNarrativeGenerationFailed)
	})
}

func TestOpenAIClient(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   "gpt-4",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": validJSON},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 120, "completion_tokens": 60, "total_tokens": 180},
		})
	}))
	defer srv.Close()

	c := newOpenAIClient(srv.URL+"/v1/", "sk-test", "gpt-4", 5*time.Second, zap.NewNop())
	content, usage, err := c.Chat(context.Background(), "system", "user", GenerationParams{Temperature: 0.8, MaxTokens: 500})
	require.NoError(t, err)

	assert.Equal(t, validJSON, content)
	assert.Equal(t, UsageInfo{PromptTokens: 120, CompletionTokens: 60}, usage)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "gpt-4", got.Model)
	assert.InDelta(t, 0.8, got.Temperature, 0.001)
	assert.Equal(t, 500, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Content)
}

func TestOpenAIClientErrors(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
		}))
		defer srv.Close()

		c := newOpenAIClient(srv.URL, "sk", "gpt-4", time.Second, zap.NewNop())
		_, _, err := c.Chat(context.Background(), "s", "u", GenerationParams{MaxTokens: 10})
		assert.ErrorIs(t, err, models.ErrNarrativeGenerationFailed)
	})

	t.Run("empty choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","model":"gpt-4","choices":[]}`))
		}))
		defer srv.Close()

		c := newOpenAIClient(srv.URL, "sk", "gpt-4", time.Second, zap.NewNop())
		_, _, err := c.Chat(context.Background(), "s", "u", GenerationParams{MaxTokens: 10})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty response")
	})
}

func TestOllamaClient(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":             "llama3",
			"created_at":        time.Now().Format(time.RFC3339),
			"message":           map[string]any{"role": "assistant", "content": validJSON},
			"done":              true,
			"done_reason":       "stop",
			"prompt_eval_count": 42,
			"eval_count":        17,
		})
	}))
	defer srv.Close()

	c, err := newOllamaClient(srv.URL+"/v1", "llama3", 5*time.Second, zap.NewNop())
	require.NoError(t, err)

	content, usage, err := c.Chat(context.Background(), "system", "user", GenerationParams{Temperature: 0.8, MaxTokens: 500})
	require.NoError(t, err)
	assert.Equal(t, validJSON, content)
	assert.Equal(t, UsageInfo{PromptTokens: 42, CompletionTokens: 17}, usage)
	assert.Equal(t, "llama3", got["model"])
	assert.Equal(t, false, got["stream"])
	opts, ok := got["options"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 500, opts["num_predict"], 0)
}

func TestNewGenerator(t *testing.T) {
	base := config.Config{AIBaseURL: "http://localhost:8080/v1", AIModel: "gpt-4", AITimeout: time.Second, AIMaxTokens: 500}

	for _, typ := range []string{"openai", "OLLAMA"} {
		t.Run(typ, func(t *testing.T) {
			cfg := base
			cfg.AIClientType = typ
			g, err := NewGenerator(&cfg, zap.NewNop())
			require.NoError(t, err)
			n, ok := g.(*LLMNarrator)
			require.True(t, ok)
			assert.Equal(t, strings.ToLower(typ), n.client.Provider())
		})
	}

	cfg := base
	cfg.AIClientType = "bard"
	_, err := NewGenerator(&cfg, zap.NewNop())
	assert.Error(t, err)
}
