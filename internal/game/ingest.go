package game

import (
	"fmt"
	"strings"

	"nihilism-server/internal/models"
)

const (
	minMomentChoices = 1
	maxMomentChoices = 4
)

// ValidateMoment checks the shape of a generated moment before it is allowed
// into a player's history. Content and mood vocabulary are not inspected.
func ValidateMoment(m models.NarrativeMoment) error {
	if strings.TrimSpace(m.Text) == "" {
		return fmt.Errorf("%w: empty text", models.ErrInvalidNarrative)
	}
	if n := len(m.Choices); n < minMomentChoices || n > maxMomentChoices {
		return fmt.Errorf("%w: %d choices, want %d..%d", models.ErrInvalidNarrative, n, minMomentChoices, maxMomentChoices)
	}
	seen := make(map[string]struct{}, len(m.Choices))
	for i, c := range m.Choices {
		if strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("%w: choice %d has no id", models.ErrInvalidNarrative, i)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: duplicate choice id %q", models.ErrInvalidNarrative, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}
