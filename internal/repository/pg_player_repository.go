package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nihilism-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const (
	upsertPlayerSnapshotQuery = `
        INSERT INTO player_snapshots (id, document, loop_number, nihilism_score, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (id) DO UPDATE SET
            document = EXCLUDED.document,
            loop_number = EXCLUDED.loop_number,
            nihilism_score = EXCLUDED.nihilism_score,
            updated_at = EXCLUDED.updated_at
    `
	getPlayerSnapshotQuery    = `SELECT id, document, updated_at FROM player_snapshots WHERE id = $1`
	deletePlayerSnapshotQuery = `DELETE FROM player_snapshots WHERE id = $1`
	listPlayerSnapshotsQuery  = `SELECT id FROM player_snapshots ORDER BY updated_at DESC`
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type playerSnapshotRow struct {
	ID        uuid.UUID `db:"id"`
	Document  []byte    `db:"document"`
	UpdatedAt time.Time `db:"updated_at"`
}

var _ PlayerStore = (*pgPlayerRepository)(nil)

type pgPlayerRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgPlayerRepository stores snapshots as jsonb rows in player_snapshots.
func NewPgPlayerRepository(db DBTX, logger *zap.Logger) PlayerStore {
	return &pgPlayerRepository{
		db:     db,
		logger: logger.Named("PgPlayerRepo"),
	}
}

func (r *pgPlayerRepository) Save(ctx context.Context, player *models.Player) error {
	doc, err := EncodePlayer(player)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, upsertPlayerSnapshotQuery,
		player.ID,
		doc,
		int64(player.CurrentLoop.Number),
		player.Memory.NihilismScore,
		player.CreatedAt,
		time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to upsert player snapshot", zap.Error(err), zap.String("playerID", player.ID.String()))
		return fmt.Errorf("%w: failed to save player %s: %v", models.ErrStoreUnavailable, player.ID, err)
	}
	r.logger.Debug("Player snapshot saved", zap.String("playerID", player.ID.String()))
	return nil
}

func (r *pgPlayerRepository) Load(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	log := r.logger.With(zap.String("playerID", id.String()))

	var row playerSnapshotRow
	if err := pgxscan.Get(ctx, r.db, &row, getPlayerSnapshotQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debug("Player snapshot not found")
			return nil, models.ErrPlayerNotFound
		}
		log.Error("Error getting player snapshot", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to load player %s: %v", models.ErrStoreUnavailable, id, err)
	}

	p, err := DecodePlayer(row.Document)
	if err != nil {
		log.Warn("Stored snapshot is malformed", zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *pgPlayerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, deletePlayerSnapshotQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete player snapshot", zap.Error(err), zap.String("playerID", id.String()))
		return fmt.Errorf("%w: failed to delete player %s: %v", models.ErrStoreUnavailable, id, err)
	}
	r.logger.Debug("Player snapshot deleted", zap.String("playerID", id.String()), zap.Int64("rows", tag.RowsAffected()))
	return nil
}

func (r *pgPlayerRepository) List(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := pgxscan.Select(ctx, r.db, &ids, listPlayerSnapshotsQuery); err != nil {
		r.logger.Error("Failed to list player snapshots", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to list players: %v", models.ErrStoreUnavailable, err)
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return ids, nil
}
