package entitlement

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines durable storage for usage records.
type Repository interface {
	Get(ctx context.Context, identity string) (*UsageRecord, error)
	Save(ctx context.Context, record *UsageRecord) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a GORM-backed usage record repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Get(ctx context.Context, identity string) (*UsageRecord, error) {
	var record UsageRecord
	err := r.db.WithContext(ctx).Where("identity = ?", identity).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUsageNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *gormRepository) Save(ctx context.Context, record *UsageRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity"}},
		UpdateAll: true,
	}).Create(record).Error
}
