package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"nihilism-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const snapshotExt = ".json"

var _ PlayerStore = (*filePlayerRepository)(nil)

// filePlayerRepository keeps one JSON document per player in a directory.
type filePlayerRepository struct {
	dir    string
	logger *zap.Logger
}

// NewFilePlayerRepository creates the data directory if needed.
func NewFilePlayerRepository(dir string, logger *zap.Logger) (PlayerStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &filePlayerRepository{
		dir:    dir,
		logger: logger.Named("FilePlayerRepo"),
	}, nil
}

func (r *filePlayerRepository) path(id uuid.UUID) string {
	return filepath.Join(r.dir, id.String()+snapshotExt)
}

func (r *filePlayerRepository) Save(ctx context.Context, player *models.Player) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := EncodePlayer(player)
	if err != nil {
		return err
	}

	// temp file + rename: readers only ever see a complete document
	tmp, err := os.CreateTemp(r.dir, player.ID.String()+"-*.tmp")
	if err != nil {
		r.logger.Error("Failed to create temp snapshot file", zap.Error(err), zap.String("playerID", player.ID.String()))
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmpName, r.path(player.ID)); err != nil {
		os.Remove(tmpName)
		r.logger.Error("Failed to move snapshot into place", zap.Error(err), zap.String("playerID", player.ID.String()))
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}

	r.logger.Debug("Player snapshot saved", zap.String("playerID", player.ID.String()), zap.Int("bytes", len(data)))
	return nil
}

func (r *filePlayerRepository) Load(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, models.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	p, err := DecodePlayer(data)
	if err != nil {
		r.logger.Warn("Stored snapshot is malformed", zap.Error(err), zap.String("playerID", id.String()))
		return nil, err
	}
	return p, nil
}

func (r *filePlayerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(r.path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

// List returns the ids of all stored snapshots. Files whose name is not a
// player id are ignored.
func (r *filePlayerRepository) List(ctx context.Context) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}

	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), snapshotExt) {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(e.Name(), snapshotExt))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
