package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Alert 用户配置的价格触发条件
// Created by the app UI; the evaluator only mutates it.
type Alert struct {
	Id             int64               `gorm:"primaryKey;autoIncrement"`
	UserId         int64               `gorm:"index"`
	Symbol         string              `gorm:"index"`
	Condition      string              `gorm:"index"`
	Level          decimal.Decimal     `gorm:"type:decimal(24,8)"`
	LastPrice      decimal.NullDecimal `gorm:"type:decimal(24,8)"`
	IsActive       bool                `gorm:"index"`
	Repeat         string
	TriggeredAt    *time.Time
	LastNotifiedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const (
	ConditionAbove        = "above"
	ConditionBelow        = "below"
	ConditionCrossesAbove = "crosses_above"
	ConditionCrossesBelow = "crosses_below"
)

const (
	RepeatUnlimited  = "unlimited"
	RepeatOncePerMin = "once_per_min"
	RepeatOncePerDay = "once_per_day"
)

// AlertEvent 报警触发的不可变记录, append-only audit trail
type AlertEvent struct {
	Id        int64           `gorm:"primaryKey;autoIncrement"`
	AlertId   int64           `gorm:"index"`
	Symbol    string          `gorm:"index"`
	Condition string
	Price     decimal.Decimal `gorm:"type:decimal(24,8)"`
	CreatedAt time.Time       `gorm:"index"`
}
