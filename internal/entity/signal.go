package entity

import (
	"time"

	"gorm.io/datatypes"
)

// StrategyGroup 策略分享组, provider 向组员广播交易信号
type StrategyGroup struct {
	Id         int64 `gorm:"primaryKey;autoIncrement"`
	Name       string
	ProviderId int64 `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type StrategyGroupMember struct {
	Id        int64 `gorm:"primaryKey;autoIncrement"`
	GroupId   int64 `gorm:"uniqueIndex:group_member_idx"`
	UserId    int64 `gorm:"uniqueIndex:group_member_idx"`
	CreatedAt time.Time
}

// TradeSignal 交易信号快照, 每个接收者一行 (denormalized)
type TradeSignal struct {
	Id          int64  `gorm:"primaryKey;autoIncrement"`
	BroadcastId string `gorm:"index"`
	GroupId     int64  `gorm:"index"`
	ProviderId  int64  `gorm:"index"`
	RecipientId int64  `gorm:"index"`
	Symbol      string `gorm:"index"`
	Timeframe   string
	Metadata    datatypes.JSON
	CreatedAt   time.Time `gorm:"index"`
}
