package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	// NihilismScoreMax and NihilismScoreMin bound PersistentMemory.NihilismScore.
	NihilismScoreMax = 100
	NihilismScoreMin = -100

	// MaxKeyMemories is the number of memories a player can carry across loops.
	MaxKeyMemories = 20
)

// Choice is a single option offered by a narrative moment.
type Choice struct {
	ID              string  `json:"id"`
	Text            string  `json:"text"`
	ConsequenceHint *string `json:"consequence_hint"`
}

// NarrativeMoment is one generated story beat of the current loop.
type NarrativeMoment struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	Speaker   *string   `json:"speaker"`
	Mood      string    `json:"mood"`
	Choices   []Choice  `json:"choices"`
	Timestamp time.Time `json:"timestamp"`
}

// Loop is a single iteration. It is replaced on every reset.
type Loop struct {
	Number      uint64     `json:"number"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at"`
	ChoicesMade []string   `json:"choices_made"`
	Outcome     *string    `json:"outcome"`
}

// PersistentMemory survives every loop reset.
type PersistentMemory struct {
	TotalLoops       uint64            `json:"total_loops"`
	TotalChoices     uint64            `json:"total_choices"`
	DarkChoices      uint64            `json:"dark_choices"`
	LightChoices     uint64            `json:"light_choices"`
	KeyMemories      []string          `json:"key_memories"`
	CharacterDeaths  map[string]uint64 `json:"character_deaths"`
	TruthsDiscovered []string          `json:"truths_discovered"`
	NihilismScore    int               `json:"nihilism_score"` // -100 (hope) .. +100 (void)
}

// Player is the full snapshot of one player's session.
type Player struct {
	ID               uuid.UUID         `json:"id"`
	Name             *string           `json:"name"`
	CurrentLoop      Loop              `json:"current_loop"`
	Memory           PersistentMemory  `json:"memory"`
	NarrativeHistory []NarrativeMoment `json:"narrative_history"`
	CreatedAt        time.Time         `json:"created_at"`
}

// LastMoment returns the most recent moment of the current loop, or nil.
func (p *Player) LastMoment() *NarrativeMoment {
	if len(p.NarrativeHistory) == 0 {
		return nil
	}
	return &p.NarrativeHistory[len(p.NarrativeHistory)-1]
}

// Clone returns a deep copy of the player.
func (p *Player) Clone() *Player {
	if p == nil {
		return nil
	}
	c := *p
	c.Name = cloneString(p.Name)
	c.CurrentLoop = p.CurrentLoop.Clone()
	c.Memory = p.Memory.Clone()
	if p.NarrativeHistory != nil {
		c.NarrativeHistory = make([]NarrativeMoment, len(p.NarrativeHistory))
		for i := range p.NarrativeHistory {
			c.NarrativeHistory[i] = p.NarrativeHistory[i].Clone()
		}
	}
	return &c
}

func (l Loop) Clone() Loop {
	c := l
	if l.EndedAt != nil {
		t := *l.EndedAt
		c.EndedAt = &t
	}
	c.ChoicesMade = cloneStrings(l.ChoicesMade)
	c.Outcome = cloneString(l.Outcome)
	return c
}

func (m PersistentMemory) Clone() PersistentMemory {
	c := m
	c.KeyMemories = cloneStrings(m.KeyMemories)
	c.TruthsDiscovered = cloneStrings(m.TruthsDiscovered)
	if m.CharacterDeaths != nil {
		c.CharacterDeaths = make(map[string]uint64, len(m.CharacterDeaths))
		for k, v := range m.CharacterDeaths {
			c.CharacterDeaths[k] = v
		}
	}
	return c
}

func (n NarrativeMoment) Clone() NarrativeMoment {
	c := n
	c.Speaker = cloneString(n.Speaker)
	if n.Choices != nil {
		c.Choices = make([]Choice, len(n.Choices))
		for i, ch := range n.Choices {
			ch.ConsequenceHint = cloneString(ch.ConsequenceHint)
			c.Choices[i] = ch
		}
	}
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// StringPtr is a small helper for optional fields.
func StringPtr(s string) *string {
	return &s
}
