package service

import (
	"context"
	"fmt"
	"strings"

	"nihilism-server/internal/game"
	"nihilism-server/internal/messaging"
	"nihilism-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *gameServiceImpl) StartNarrative(ctx context.Context, playerID uuid.UUID, userInput *string) (*TurnResult, error) {
	snap, err := s.snapshot(ctx, playerID)
	if err != nil {
		return nil, err
	}

	moment, err := s.generator.GenerateNarrative(ctx, snap, userInput)
	if err != nil {
		s.logger.Error("Narrative generation failed", zap.String("playerID", playerID.String()), zap.Error(err))
		return nil, err
	}
	return s.ingest(playerID, moment)
}

func (s *gameServiceImpl) MakeChoice(ctx context.Context, playerID uuid.UUID, choiceID, choiceText string) (*TurnResult, error) {
	if strings.TrimSpace(choiceID) == "" {
		return nil, fmt.Errorf("%w: choice_id is required", models.ErrInvalidInput)
	}
	if _, err := s.snapshot(ctx, playerID); err != nil {
		return nil, err
	}

	var (
		snap   *models.Player
		choice models.Choice
		isDark bool
		before *models.EndingRecord
	)
	err := s.players.Update(playerID, func(p *models.Player) error {
		choice = resolveChoice(p.LastMoment(), choiceID, choiceText)
		isDark = s.classifier.Classify(choice.ID, choice.Text)
		before = game.CheckForEnding(p)
		game.RecordChoice(p, choice.ID, isDark)
		snap = p.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	choicesTotal.WithLabelValues(valenceLabel(isDark)).Inc()
	s.logger.Info("Choice recorded",
		zap.String("playerID", playerID.String()),
		zap.String("choiceID", choice.ID),
		zap.Bool("dark", isDark),
		zap.Int("nihilismScore", snap.Memory.NihilismScore),
	)

	if interval := s.cfg.AutoSaveIntervalChoices; interval > 0 && snap.Memory.TotalChoices%uint64(interval) == 0 {
		s.autosave(ctx, snap, "choice_interval")
	}
	s.noteEnding(ctx, before, snap)

	moment, err := s.generator.ProcessChoice(ctx, snap, choice)
	if err != nil {
		s.logger.Error("Narrative generation failed after choice", zap.String("playerID", playerID.String()), zap.Error(err))
		return nil, err
	}
	return s.ingest(playerID, moment)
}

func (s *gameServiceImpl) ResetLoop(ctx context.Context, playerID uuid.UUID) (*models.Player, error) {
	if _, err := s.snapshot(ctx, playerID); err != nil {
		return nil, err
	}

	var snap *models.Player
	var before *models.EndingRecord
	err := s.players.Update(playerID, func(p *models.Player) error {
		before = game.CheckForEnding(p)
		game.ResetLoop(p)
		snap = p.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	loopResetsTotal.Inc()
	s.logger.Info("Loop reset",
		zap.String("playerID", playerID.String()),
		zap.Uint64("loop", snap.CurrentLoop.Number),
		zap.Int("keyMemories", len(snap.Memory.KeyMemories)),
	)

	s.autosave(ctx, snap, "loop_reset")
	s.publish(ctx, messaging.NewEvent(messaging.EventLoopReset, snap))
	s.noteEnding(ctx, before, snap)
	return snap, nil
}

// ingest validates a generated moment and appends it to the live player.
// Rejected moments leave the player untouched.
func (s *gameServiceImpl) ingest(playerID uuid.UUID, moment models.NarrativeMoment) (*TurnResult, error) {
	if err := game.ValidateMoment(moment); err != nil {
		s.logger.Warn("Rejected generated moment", zap.String("playerID", playerID.String()), zap.Error(err))
		return nil, err
	}

	var res TurnResult
	err := s.players.Update(playerID, func(p *models.Player) error {
		game.AppendMoment(p, moment)
		res = TurnResult{
			Moment:        moment,
			LoopNumber:    p.CurrentLoop.Number,
			NihilismScore: p.Memory.NihilismScore,
			Ending:        game.CheckForEnding(p),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// noteEnding publishes ending_reached the first time a player qualifies.
func (s *gameServiceImpl) noteEnding(ctx context.Context, before *models.EndingRecord, snap *models.Player) {
	if before != nil {
		return
	}
	after := game.CheckForEnding(snap)
	if after == nil {
		return
	}

	endingsReachedTotal.WithLabelValues(string(after.EndingType)).Inc()
	s.logger.Info("Ending reached",
		zap.String("playerID", snap.ID.String()),
		zap.String("ending", string(after.EndingType)),
		zap.Uint64("totalLoops", after.TotalLoops),
	)

	event := messaging.NewEvent(messaging.EventEndingReached, snap)
	ending := after.EndingType
	event.Ending = &ending
	s.publish(ctx, event)
}

// resolveChoice fills a missing choice text from the moment that offered it.
// An unknown id keeps the empty text so only the id keywords apply.
func resolveChoice(offered *models.NarrativeMoment, choiceID, choiceText string) models.Choice {
	if choiceText != "" {
		return models.Choice{ID: choiceID, Text: choiceText}
	}
	if offered != nil {
		for _, c := range offered.Choices {
			if c.ID == choiceID {
				return models.Choice{ID: c.ID, Text: c.Text}
			}
		}
	}
	return models.Choice{ID: choiceID}
}
