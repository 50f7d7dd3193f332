package repo

import (
	"context"

	"github.com/tradelens/alert-engine/internal/entity"
	"gorm.io/gorm"
)

type EventRepo interface {
	Create(ctx context.Context, event entity.AlertEvent) (int64, error)
}

type eventRepo struct {
	db *gorm.DB
}

func NewEventRepo(db *gorm.DB) EventRepo {
	return &eventRepo{
		db: db,
	}
}

func (r *eventRepo) Create(ctx context.Context, event entity.AlertEvent) (int64, error) {
	err := r.db.WithContext(ctx).Create(&event).Error
	if err != nil {
		return 0, err
	}
	return event.Id, nil
}
