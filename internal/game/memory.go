package game

import "nihilism-server/internal/models"

const (
	darkScoreStep  = 5
	lightScoreStep = 3
)

// RecordChoice folds one classified choice into the current loop and the
// player's persistent memory. Dark choices push the score up faster than
// light ones pull it down.
func RecordChoice(p *models.Player, choiceID string, isDark bool) {
	p.CurrentLoop.ChoicesMade = append(p.CurrentLoop.ChoicesMade, choiceID)
	p.Memory.TotalChoices++

	if isDark {
		p.Memory.DarkChoices++
		p.Memory.NihilismScore = min(p.Memory.NihilismScore+darkScoreStep, models.NihilismScoreMax)
		return
	}
	p.Memory.LightChoices++
	p.Memory.NihilismScore = max(p.Memory.NihilismScore-lightScoreStep, models.NihilismScoreMin)
}
