package service

import (
	"context"
	"errors"
	"fmt"

	"nihilism-server/internal/config"
	"nihilism-server/internal/game"
	"nihilism-server/internal/messaging"
	"nihilism-server/internal/models"
	"nihilism-server/internal/narrator"
	"nihilism-server/internal/registry"
	"nihilism-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GameState is the full view of one player.
type GameState struct {
	Player        *models.Player
	CurrentMoment *models.NarrativeMoment
	Ending        *models.EndingRecord
}

// LoadedGame is a player returned by LoadGame. FromStore is false when the
// player was only found in memory.
type LoadedGame struct {
	Player    *models.Player
	FromStore bool
}

// TurnResult is returned by operations that produce a new narrative moment.
type TurnResult struct {
	Moment        models.NarrativeMoment
	LoopNumber    uint64
	NihilismScore int
	Ending        *models.EndingRecord
}

// GameService drives players through their loops.
type GameService interface {
	// NewGame registers a fresh player on loop 1 and autosaves it.
	NewGame(ctx context.Context, name *string) (*models.Player, error)
	// LoadGame prefers the stored snapshot and registers it; otherwise the
	// in-memory player is returned. Malformed snapshots count as absent.
	LoadGame(ctx context.Context, playerID uuid.UUID) (*LoadedGame, error)
	SaveGame(ctx context.Context, playerID uuid.UUID) error
	ListSaves(ctx context.Context) ([]uuid.UUID, error)
	// DeleteSave removes the stored snapshot. The live player is kept.
	DeleteSave(ctx context.Context, playerID uuid.UUID) error

	GetState(ctx context.Context, playerID uuid.UUID) (*GameState, error)
	// StartNarrative generates a moment for the current state of the loop.
	StartNarrative(ctx context.Context, playerID uuid.UUID, userInput *string) (*TurnResult, error)
	// MakeChoice classifies and records the choice, then generates the next
	// moment. The choice stays recorded even when generation fails.
	MakeChoice(ctx context.Context, playerID uuid.UUID, choiceID, choiceText string) (*TurnResult, error)
	ResetLoop(ctx context.Context, playerID uuid.UUID) (*models.Player, error)
	CheckEnding(ctx context.Context, playerID uuid.UUID) (*models.EndingRecord, error)
}

type gameServiceImpl struct {
	players    *registry.Registry
	classifier game.ChoiceClassifier
	store      repository.PlayerStore
	generator  narrator.Generator
	publisher  messaging.EventPublisher
	cfg        *config.Config
	logger     *zap.Logger
}

// NewGameService wires the game collaborators together. A nil classifier
// selects the keyword classifier, a nil publisher drops events.
func NewGameService(
	players *registry.Registry,
	classifier game.ChoiceClassifier,
	store repository.PlayerStore,
	generator narrator.Generator,
	publisher messaging.EventPublisher,
	cfg *config.Config,
	logger *zap.Logger,
) GameService {
	if cfg == nil {
		panic("cfg cannot be nil for NewGameService")
	}
	if classifier == nil {
		classifier = game.NewKeywordClassifier()
	}
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	return &gameServiceImpl{
		players:    players,
		classifier: classifier,
		store:      store,
		generator:  generator,
		publisher:  publisher,
		cfg:        cfg,
		logger:     logger.Named("GameService"),
	}
}

func (s *gameServiceImpl) NewGame(ctx context.Context, name *string) (*models.Player, error) {
	p := s.players.Create(name)
	activePlayers.Set(float64(s.players.Len()))

	log := s.logger.With(zap.String("playerID", p.ID.String()))
	log.Info("New game created")

	s.autosave(ctx, p, "new_game")
	s.publish(ctx, messaging.NewEvent(messaging.EventPlayerCreated, p))
	return p, nil
}

func (s *gameServiceImpl) LoadGame(ctx context.Context, playerID uuid.UUID) (*LoadedGame, error) {
	log := s.logger.With(zap.String("playerID", playerID.String()))

	p, storeErr := s.store.Load(ctx, playerID)
	switch {
	case storeErr == nil:
		s.players.Put(p)
		activePlayers.Set(float64(s.players.Len()))
		log.Info("Game loaded from store", zap.Uint64("loop", p.CurrentLoop.Number))
		return &LoadedGame{Player: p, FromStore: true}, nil
	case errors.Is(storeErr, models.ErrMalformedSnapshot):
		log.Warn("Stored snapshot is malformed, treating as absent", zap.Error(storeErr))
	case errors.Is(storeErr, models.ErrPlayerNotFound):
		log.Debug("No stored snapshot")
	default:
		log.Error("Failed to load stored snapshot", zap.Error(storeErr))
	}

	snap, err := s.players.Snapshot(playerID)
	if err == nil {
		log.Info("Game loaded from memory")
		return &LoadedGame{Player: snap}, nil
	}
	if storeErr != nil && !errors.Is(storeErr, models.ErrPlayerNotFound) && !errors.Is(storeErr, models.ErrMalformedSnapshot) {
		return nil, storeErr
	}
	return nil, models.ErrPlayerNotFound
}

func (s *gameServiceImpl) SaveGame(ctx context.Context, playerID uuid.UUID) error {
	snap, err := s.players.Snapshot(playerID)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, snap); err != nil {
		s.logger.Error("Failed to save game", zap.String("playerID", playerID.String()), zap.Error(err))
		return err
	}
	s.logger.Info("Game saved", zap.String("playerID", playerID.String()))
	return nil
}

func (s *gameServiceImpl) ListSaves(ctx context.Context) ([]uuid.UUID, error) {
	ids, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list saves", zap.Error(err))
		return nil, err
	}
	return ids, nil
}

func (s *gameServiceImpl) DeleteSave(ctx context.Context, playerID uuid.UUID) error {
	if err := s.store.Delete(ctx, playerID); err != nil {
		s.logger.Error("Failed to delete save", zap.String("playerID", playerID.String()), zap.Error(err))
		return err
	}
	s.logger.Info("Save deleted", zap.String("playerID", playerID.String()))
	return nil
}

func (s *gameServiceImpl) GetState(ctx context.Context, playerID uuid.UUID) (*GameState, error) {
	snap, err := s.snapshot(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return &GameState{
		Player:        snap,
		CurrentMoment: snap.LastMoment(),
		Ending:        game.CheckForEnding(snap),
	}, nil
}

func (s *gameServiceImpl) CheckEnding(ctx context.Context, playerID uuid.UUID) (*models.EndingRecord, error) {
	snap, err := s.snapshot(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return game.CheckForEnding(snap), nil
}

// snapshot returns a copy of the live player, registering the stored snapshot
// first when the player is not in memory yet. A player registered meanwhile by
// another request wins over the stored one.
func (s *gameServiceImpl) snapshot(ctx context.Context, playerID uuid.UUID) (*models.Player, error) {
	snap, err := s.players.Snapshot(playerID)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, models.ErrPlayerNotFound) {
		return nil, err
	}

	stored, loadErr := s.store.Load(ctx, playerID)
	if loadErr != nil {
		if errors.Is(loadErr, models.ErrMalformedSnapshot) {
			s.logger.Warn("Stored snapshot is malformed, treating as absent", zap.String("playerID", playerID.String()), zap.Error(loadErr))
			return nil, models.ErrPlayerNotFound
		}
		if errors.Is(loadErr, models.ErrPlayerNotFound) {
			return nil, models.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to restore player %s: %w", playerID, loadErr)
	}
	live := s.players.Restore(stored)
	activePlayers.Set(float64(s.players.Len()))
	s.logger.Info("Player restored from store", zap.String("playerID", playerID.String()))
	return live, nil
}

// autosave persists a snapshot. Failures are logged and never surface.
func (s *gameServiceImpl) autosave(ctx context.Context, snap *models.Player, reason string) {
	if !s.cfg.AutoSaveEnabled {
		return
	}
	if err := s.store.Save(ctx, snap); err != nil {
		s.logger.Warn("Auto-save failed",
			zap.String("playerID", snap.ID.String()),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("Auto-saved", zap.String("playerID", snap.ID.String()), zap.String("reason", reason))
}

// publish delivers an event. Failures are logged and never surface.
func (s *gameServiceImpl) publish(ctx context.Context, event messaging.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("type", string(event.Type)),
			zap.String("playerID", event.PlayerID.String()),
			zap.Error(err),
		)
	}
}
