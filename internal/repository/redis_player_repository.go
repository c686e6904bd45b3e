package repository

import (
	"context"
	"errors"
	"fmt"

	"nihilism-server/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ PlayerStore = (*redisPlayerRepository)(nil)

// redisPlayerRepository keeps each document under <prefix>player:<id> and the
// set of known ids under <prefix>players.
type redisPlayerRepository struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

func NewRedisPlayerRepository(client *redis.Client, keyPrefix string, logger *zap.Logger) PlayerStore {
	return &redisPlayerRepository{
		client: client,
		prefix: keyPrefix,
		logger: logger.Named("RedisPlayerRepo"),
	}
}

func (r *redisPlayerRepository) playerKey(id uuid.UUID) string {
	return fmt.Sprintf("%splayer:%s", r.prefix, id)
}

func (r *redisPlayerRepository) indexKey() string {
	return r.prefix + "players"
}

func (r *redisPlayerRepository) Save(ctx context.Context, player *models.Player) error {
	doc, err := EncodePlayer(player)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.playerKey(player.ID), doc, 0)
	pipe.SAdd(ctx, r.indexKey(), player.ID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to save player snapshot in redis", zap.Error(err), zap.String("playerID", player.ID.String()))
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *redisPlayerRepository) Load(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	data, err := r.client.Get(ctx, r.playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrPlayerNotFound
		}
		r.logger.Error("Failed to get player snapshot from redis", zap.Error(err), zap.String("playerID", id.String()))
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}

	p, err := DecodePlayer(data)
	if err != nil {
		r.logger.Warn("Stored snapshot is malformed", zap.Error(err), zap.String("playerID", id.String()))
		return nil, err
	}
	return p, nil
}

func (r *redisPlayerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.playerKey(id))
	pipe.SRem(ctx, r.indexKey(), id.String())
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to delete player snapshot from redis", zap.Error(err), zap.String("playerID", id.String()))
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *redisPlayerRepository) List(ctx context.Context) ([]uuid.UUID, error) {
	members, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			r.logger.Warn("Skipping invalid id in player index", zap.String("member", m))
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
