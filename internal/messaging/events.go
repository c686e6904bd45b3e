package messaging

import (
	"context"
	"time"

	"nihilism-server/internal/models"

	"github.com/google/uuid"
)

// EventType names a domain event.
type EventType string

const (
	EventPlayerCreated EventType = "player_created"
	EventLoopReset     EventType = "loop_reset"
	EventEndingReached EventType = "ending_reached"
)

// Event is published when something notable happens to a player.
type Event struct {
	Type          EventType          `json:"type"`
	PlayerID      uuid.UUID          `json:"player_id"`
	LoopNumber    uint64             `json:"loop_number"`
	NihilismScore int                `json:"nihilism_score"`
	Ending        *models.EndingType `json:"ending,omitempty"`
	OccurredAt    time.Time          `json:"occurred_at"`
}

// NewEvent fills the event from a player snapshot.
func NewEvent(t EventType, p *models.Player) Event {
	return Event{
		Type:          t,
		PlayerID:      p.ID,
		LoopNumber:    p.CurrentLoop.Number,
		NihilismScore: p.Memory.NihilismScore,
		OccurredAt:    time.Now().UTC(),
	}
}

// EventPublisher delivers domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

var _ EventPublisher = NoopPublisher{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }
