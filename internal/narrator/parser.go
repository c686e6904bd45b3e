package narrator

import (
	"encoding/json"
	"strings"
	"time"

	"nihilism-server/internal/models"

	"github.com/google/uuid"
)

const defaultMood = "neutral"

type narrativeResponse struct {
	Text    *string          `json:"text"`
	Speaker *string          `json:"speaker"`
	Mood    string           `json:"mood"`
	Choices []choiceResponse `json:"choices"`
}

type choiceResponse struct {
	ID              string  `json:"id"`
	Text            string  `json:"text"`
	ConsequenceHint *string `json:"consequence_hint"`
}

// ParseMoment turns raw model output into a moment. Output that is not the
// expected JSON object becomes a plain narration with continue/reset choices.
func ParseMoment(raw string) models.NarrativeMoment {
	m := models.NarrativeMoment{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
	}

	resp, ok := decodeResponse(raw)
	if !ok {
		m.Text = raw
		m.Mood = defaultMood
		m.Choices = fallbackChoices()
		return m
	}

	m.Text = *resp.Text
	m.Speaker = resp.Speaker
	if m.Speaker != nil && strings.TrimSpace(*m.Speaker) == "" {
		m.Speaker = nil
	}
	m.Mood = resp.Mood
	if m.Mood == "" {
		m.Mood = defaultMood
	}
	m.Choices = make([]models.Choice, 0, len(resp.Choices))
	for _, c := range resp.Choices {
		m.Choices = append(m.Choices, models.Choice{ID: c.ID, Text: c.Text, ConsequenceHint: c.ConsequenceHint})
	}
	return m
}

func decodeResponse(raw string) (narrativeResponse, bool) {
	body := extractJSON(raw)
	if body == "" {
		return narrativeResponse{}, false
	}
	var resp narrativeResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return narrativeResponse{}, false
	}
	if resp.Text == nil || resp.Choices == nil {
		return narrativeResponse{}, false
	}
	return resp, true
}

// extractJSON strips markdown fences and any chatter around the outermost object.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func fallbackChoices() []models.Choice {
	return []models.Choice{
		{ID: "continue", Text: "Continue..."},
		{ID: "reset", Text: "Let the loop reset...", ConsequenceHint: models.StringPtr("End this iteration")},
	}
}
