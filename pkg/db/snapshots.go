package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/persist"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotRepository is a persist.Gateway over the snapshots table.
type SnapshotRepository struct {
	db  *gorm.DB
	now func() time.Time
}

var _ persist.Gateway = (*SnapshotRepository)(nil)

func NewSnapshotRepository(conn *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: conn, now: time.Now}
}

func (r *SnapshotRepository) Get(ctx context.Context, key string) (string, error) {
	var row models.Snapshot
	err := r.db.WithContext(ctx).Where("storage_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", persist.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load snapshot %q: %w", key, err)
	}
	return row.Payload, nil
}

// Set upserts the payload for key.
func (r *SnapshotRepository) Set(ctx context.Context, key, value string) error {
	row := models.Snapshot{
		StorageKey: key,
		Payload:    value,
		UpdatedAt:  r.now().UTC(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "storage_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("save snapshot %q: %w", key, err)
	}
	return nil
}

func (r *SnapshotRepository) Remove(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("storage_key = ?", key).Delete(&models.Snapshot{}).Error; err != nil {
		return fmt.Errorf("delete snapshot %q: %w", key, err)
	}
	return nil
}
