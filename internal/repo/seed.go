package repo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradelens/alert-engine/internal/entity"
	"gorm.io/gorm"
)

// Seeder 幂等的演示数据初始化, 状态由实例持有而不是包级变量,
// 由启动进程显式调用一次.
type Seeder struct {
	db     *gorm.DB
	seeded bool
}

func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{
		db: db,
	}
}

func (s *Seeder) Seed(ctx context.Context) error {
	if s.seeded {
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&entity.Alert{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		s.seeded = true
		return nil
	}

	now := time.Now()
	alerts := []entity.Alert{
		{UserId: 1, Symbol: "BTCUSDT", Condition: entity.ConditionCrossesAbove, Level: decimal.NewFromInt(100000), IsActive: true, Repeat: entity.RepeatOncePerMin, CreatedAt: now},
		{UserId: 1, Symbol: "ETHUSDT", Condition: entity.ConditionBelow, Level: decimal.NewFromInt(3000), IsActive: true, Repeat: entity.RepeatOncePerDay, CreatedAt: now},
		{UserId: 2, Symbol: "BTCUSDT", Condition: entity.ConditionAbove, Level: decimal.NewFromInt(95000), IsActive: true, Repeat: entity.RepeatUnlimited, CreatedAt: now},
	}
	if err := s.db.WithContext(ctx).Create(&alerts).Error; err != nil {
		return err
	}

	group := entity.StrategyGroup{Name: "demo momentum", ProviderId: 1, CreatedAt: now}
	if err := s.db.WithContext(ctx).Create(&group).Error; err != nil {
		return err
	}
	members := []entity.StrategyGroupMember{
		{GroupId: group.Id, UserId: 1, CreatedAt: now},
		{GroupId: group.Id, UserId: 2, CreatedAt: now},
	}
	if err := s.db.WithContext(ctx).Create(&members).Error; err != nil {
		return err
	}

	devices := []entity.UserDevice{
		{UserId: 1, PushToken: "ExponentPushToken[demo-user-1]", Platform: "ios", CreatedAt: now},
		{UserId: 2, PushToken: "ExponentPushToken[demo-user-2]", Platform: "android", CreatedAt: now},
	}
	if err := s.db.WithContext(ctx).Create(&devices).Error; err != nil {
		return err
	}

	s.seeded = true
	return nil
}
