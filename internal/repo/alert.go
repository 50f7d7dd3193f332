package repo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradelens/alert-engine/internal/entity"
	"gorm.io/gorm"
)

type AlertRepo interface {
	FindActive(ctx context.Context) ([]entity.Alert, error)
	UpdateLastPrice(ctx context.Context, id int64, price decimal.Decimal) error
	MarkTriggered(ctx context.Context, id int64, at time.Time) error
}

type alertRepo struct {
	db *gorm.DB
}

func NewAlertRepo(db *gorm.DB) AlertRepo {
	return &alertRepo{
		db: db,
	}
}

func (r *alertRepo) FindActive(ctx context.Context) ([]entity.Alert, error) {
	var alerts []entity.Alert
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *alertRepo) UpdateLastPrice(ctx context.Context, id int64, price decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&entity.Alert{}).Where("id = ?", id).
		Update("last_price", decimal.NewNullDecimal(price)).Error
}

// MarkTriggered 触发时间和最近通知时间只在实际触发时更新
func (r *alertRepo) MarkTriggered(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.Alert{}).Where("id = ?", id).
		Updates(map[string]any{
			"triggered_at":     at,
			"last_notified_at": at,
		}).Error
}
