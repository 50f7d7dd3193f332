package repo

import (
	"context"

	"github.com/tradelens/alert-engine/internal/entity"
	"gorm.io/gorm"
)

type GroupRepo interface {
	IsMember(ctx context.Context, groupId, userId int64) (bool, error)
	FindMembers(ctx context.Context, groupId int64) ([]entity.StrategyGroupMember, error)
}

type groupRepo struct {
	db *gorm.DB
}

func NewGroupRepo(db *gorm.DB) GroupRepo {
	return &groupRepo{
		db: db,
	}
}

func (r *groupRepo) IsMember(ctx context.Context, groupId, userId int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.StrategyGroupMember{}).
		Where("group_id = ? AND user_id = ?", groupId, userId).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *groupRepo) FindMembers(ctx context.Context, groupId int64) ([]entity.StrategyGroupMember, error) {
	var members []entity.StrategyGroupMember
	err := r.db.WithContext(ctx).Where("group_id = ?", groupId).Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}
