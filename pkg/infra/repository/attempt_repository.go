package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/vigil-sec/vigil/pkg/domain/threat"
	"gorm.io/gorm"
)

type AttemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) threat.AttemptRepository {
	return &AttemptRepository{db: db}
}

func (r *AttemptRepository) Save(ctx context.Context, record *threat.AttemptRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to save attempt record: %w", err)
	}
	return nil
}

func (r *AttemptRepository) CountSince(
	ctx context.Context,
	identifier string,
	idType threat.IdentifierType,
	sinceSeconds int,
) (int64, error) {
	var count int64
	since := time.Now().Add(-time.Duration(sinceSeconds) * time.Second)
	err := r.db.WithContext(ctx).
		Model(&threat.AttemptRecord{}).
		Where("identifier = ? AND type = ? AND created_at > ?", identifier, idType, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return count, nil
}
