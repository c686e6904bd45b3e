package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"nihilism-server/internal/models"

	"github.com/google/uuid"
)

// PlayerStore persists full player snapshots keyed by player id.
type PlayerStore interface {
	// Save creates or replaces the snapshot.
	Save(ctx context.Context, player *models.Player) error
	// Load returns models.ErrPlayerNotFound when nothing is stored and
	// models.ErrMalformedSnapshot when the stored document is unusable.
	Load(ctx context.Context, id uuid.UUID) (*models.Player, error)
	// Delete is a no-op for unknown ids.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]uuid.UUID, error)
}

// EncodePlayer renders the snapshot document.
func EncodePlayer(p *models.Player) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode player %s: %w", p.ID, err)
	}
	return data, nil
}

// DecodePlayer parses a snapshot document. Every failure, including documents
// that parse but break the player invariants, wraps models.ErrMalformedSnapshot.
func DecodePlayer(data []byte) (*models.Player, error) {
	var p models.Player
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedSnapshot, err)
	}
	if err := checkSnapshot(&p); err != nil {
		return nil, err
	}
	normalize(&p)
	return &p, nil
}

func checkSnapshot(p *models.Player) error {
	mem := p.Memory
	switch {
	case p.ID == uuid.Nil:
		return fmt.Errorf("%w: missing id", models.ErrMalformedSnapshot)
	case p.CurrentLoop.Number == 0:
		return fmt.Errorf("%w: loop number is zero", models.ErrMalformedSnapshot)
	case mem.NihilismScore < models.NihilismScoreMin || mem.NihilismScore > models.NihilismScoreMax:
		return fmt.Errorf("%w: nihilism score %d out of range", models.ErrMalformedSnapshot, mem.NihilismScore)
	case mem.DarkChoices+mem.LightChoices != mem.TotalChoices:
		return fmt.Errorf("%w: dark %d + light %d != total %d", models.ErrMalformedSnapshot, mem.DarkChoices, mem.LightChoices, mem.TotalChoices)
	case len(mem.KeyMemories) > models.MaxKeyMemories:
		return fmt.Errorf("%w: %d key memories", models.ErrMalformedSnapshot, len(mem.KeyMemories))
	}
	seen := make(map[string]struct{}, len(mem.KeyMemories))
	for _, m := range mem.KeyMemories {
		if _, dup := seen[m]; dup {
			return fmt.Errorf("%w: duplicate key memory %q", models.ErrMalformedSnapshot, m)
		}
		seen[m] = struct{}{}
	}
	return nil
}

// normalize replaces null collections with empty ones.
func normalize(p *models.Player) {
	if p.CurrentLoop.ChoicesMade == nil {
		p.CurrentLoop.ChoicesMade = []string{}
	}
	if p.Memory.KeyMemories == nil {
		p.Memory.KeyMemories = []string{}
	}
	if p.Memory.CharacterDeaths == nil {
		p.Memory.CharacterDeaths = map[string]uint64{}
	}
	if p.Memory.TruthsDiscovered == nil {
		p.Memory.TruthsDiscovered = []string{}
	}
	if p.NarrativeHistory == nil {
		p.NarrativeHistory = []models.NarrativeMoment{}
	}
}
