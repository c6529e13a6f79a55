package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/vigil-sec/vigil/pkg/domain/threat"
	"gorm.io/gorm"
)

type ListRepository struct {
	db *gorm.DB
}

func NewListRepository(db *gorm.DB) threat.ListRepository {
	return &ListRepository{db: db}
}

func (r *ListRepository) Save(ctx context.Context, entry *threat.ListEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to save list entry: %w", err)
	}
	return nil
}

func (r *ListRepository) FindActiveByKind(ctx context.Context, kind threat.ListKind) ([]threat.ListEntry, error) {
	var entries []threat.ListEntry
	err := r.db.WithContext(ctx).
		Where("kind = ? AND active = ?", kind, true).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s entries: %w", kind, err)
	}
	return entries, nil
}

func (r *ListRepository) Deactivate(ctx context.Context, ip string, kind threat.ListKind) error {
	err := r.db.WithContext(ctx).
		Model(&threat.ListEntry{}).
		Where("ip = ? AND kind = ?", ip, kind).
		Update("active", false).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate list entry: %w", err)
	}
	return nil
}
