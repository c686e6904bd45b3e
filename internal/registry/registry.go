// Package registry holds the live players of the server, each behind its own
// reader/writer lock.
package registry

import (
	"sync"

	"nihilism-server/internal/game"
	"nihilism-server/internal/models"

	"github.com/google/uuid"
)

type entry struct {
	mu     sync.RWMutex
	player *models.Player
}

// Registry is a keyed collection of players. The map itself is guarded by mu;
// every player is guarded by its entry lock, so work on different players
// never contends beyond the brief map lookup.
type Registry struct {
	mu      sync.RWMutex
	players map[uuid.UUID]*entry
}

func New() *Registry {
	return &Registry{players: make(map[uuid.UUID]*entry)}
}

// Create builds a new player, registers it and returns a copy.
func (r *Registry) Create(name *string) *models.Player {
	p := game.NewPlayer()
	if name != nil {
		n := *name
		p.Name = &n
	}
	r.Put(p)
	return p.Clone()
}

// Put registers a copy of p, replacing any player with the same id. A live
// player is swapped under its own lock, so an Update in progress finishes on
// the old state and the next one sees the new state.
func (r *Registry) Put(p *models.Player) {
	c := p.Clone()
	r.mu.Lock()
	e, ok := r.players[p.ID]
	if !ok {
		r.players[p.ID] = &entry{player: c}
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	e.mu.Lock()
	e.player = c
	e.mu.Unlock()
}

// Restore registers a copy of p unless the id is already live, and returns a
// copy of whichever player is registered afterwards.
func (r *Registry) Restore(p *models.Player) *models.Player {
	r.mu.Lock()
	e, ok := r.players[p.ID]
	if !ok {
		e = &entry{player: p.Clone()}
		r.players[p.ID] = e
	}
	r.mu.Unlock()

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.player.Clone()
}

func (r *Registry) lookup(id uuid.UUID) (*entry, error) {
	r.mu.RLock()
	e, ok := r.players[id]
	r.mu.RUnlock()
	if !ok {
		return nil, models.ErrPlayerNotFound
	}
	return e, nil
}

// Update runs fn with exclusive access to the player. fn must not keep the
// pointer after it returns. The error from fn is returned as is.
func (r *Registry) Update(id uuid.UUID, fn func(p *models.Player) error) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.player)
}

// View runs fn with shared access to the player. fn must not modify it.
func (r *Registry) View(id uuid.UUID, fn func(p *models.Player)) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.player)
	return nil
}

// Snapshot returns a deep copy taken under the shared lock.
func (r *Registry) Snapshot(id uuid.UUID) (*models.Player, error) {
	var c *models.Player
	if err := r.View(id, func(p *models.Player) { c = p.Clone() }); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}
