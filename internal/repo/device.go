package repo

import (
	"context"

	"github.com/tradelens/alert-engine/internal/entity"
	"gorm.io/gorm"
)

type DeviceRepo interface {
	FindByUser(ctx context.Context, userId int64) ([]entity.UserDevice, error)
}

type deviceRepo struct {
	db *gorm.DB
}

func NewDeviceRepo(db *gorm.DB) DeviceRepo {
	return &deviceRepo{
		db: db,
	}
}

func (r *deviceRepo) FindByUser(ctx context.Context, userId int64) ([]entity.UserDevice, error) {
	var devices []entity.UserDevice
	err := r.db.WithContext(ctx).Where("user_id = ?", userId).Find(&devices).Error
	if err != nil {
		return nil, err
	}
	return devices, nil
}
