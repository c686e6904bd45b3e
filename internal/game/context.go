package game

import (
	"fmt"
	"strings"

	"nihilism-server/internal/models"
)

const contextMemoryLimit = 5

// ScoreLabel names the band a nihilism score falls into.
func ScoreLabel(score int) string {
	switch {
	case score > 30:
		return "Descending into darkness"
	case score < -30:
		return "Finding meaning"
	default:
		return "Balanced on the edge"
	}
}

// BuildContext renders the player's state as the text summary handed to the
// narrative generator. It does not modify the player.
func BuildContext(p *models.Player) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Loop #%d\n", p.CurrentLoop.Number)
	fmt.Fprintf(&b, "Nihilism Score: %d (%s)\n", p.Memory.NihilismScore, ScoreLabel(p.Memory.NihilismScore))

	if len(p.Memory.KeyMemories) > 0 {
		b.WriteString("\nMemories that persist:\n")
		for _, m := range p.Memory.KeyMemories[:min(len(p.Memory.KeyMemories), contextMemoryLimit)] {
			fmt.Fprintf(&b, "- %s\n", m)
		}
	}

	if len(p.CurrentLoop.ChoicesMade) > 0 {
		b.WriteString("\nChoices this loop:\n")
		for _, c := range p.CurrentLoop.ChoicesMade {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}

	return b.String()
}
