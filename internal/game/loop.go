package game

import (
	"slices"
	"time"

	"nihilism-server/internal/models"

	"github.com/google/uuid"
)

// now is swapped in tests.
var now = func() time.Time { return time.Now().UTC() }

// NewPlayer creates a player on loop 1 with empty memory.
func NewPlayer() *models.Player {
	ts := now()
	return &models.Player{
		ID:          uuid.New(),
		CurrentLoop: newLoop(1, ts),
		Memory: models.PersistentMemory{
			KeyMemories:      []string{},
			CharacterDeaths:  map[string]uint64{},
			TruthsDiscovered: []string{},
		},
		NarrativeHistory: []models.NarrativeMoment{},
		CreatedAt:        ts,
	}
}

// ResetLoop ends the current loop and starts the next one. The last moment of
// the loop becomes a key memory unless it is already remembered or the memory
// is full; once full, nothing new is retained.
func ResetLoop(p *models.Player) {
	p.Memory.TotalLoops++

	if last := p.LastMoment(); last != nil {
		if !slices.Contains(p.Memory.KeyMemories, last.Text) && len(p.Memory.KeyMemories) < models.MaxKeyMemories {
			p.Memory.KeyMemories = append(p.Memory.KeyMemories, last.Text)
		}
	}

	p.CurrentLoop = newLoop(p.Memory.TotalLoops+1, now())
	p.NarrativeHistory = []models.NarrativeMoment{}
}

// AppendMoment adds a moment to the current loop's history as is.
func AppendMoment(p *models.Player, m models.NarrativeMoment) {
	p.NarrativeHistory = append(p.NarrativeHistory, m)
}

func newLoop(number uint64, startedAt time.Time) models.Loop {
	return models.Loop{
		Number:      number,
		StartedAt:   startedAt,
		ChoicesMade: []string{},
	}
}
