package repo

import (
	"context"

	"github.com/tradelens/alert-engine/internal/entity"
	"gorm.io/gorm"
)

type ScanRepo interface {
	Create(ctx context.Context, result entity.ScanResult) (int64, error)
}

type scanRepo struct {
	db *gorm.DB
}

func NewScanRepo(db *gorm.DB) ScanRepo {
	return &scanRepo{
		db: db,
	}
}

func (r *scanRepo) Create(ctx context.Context, result entity.ScanResult) (int64, error) {
	err := r.db.WithContext(ctx).Create(&result).Error
	if err != nil {
		return 0, err
	}
	return result.Id, nil
}
