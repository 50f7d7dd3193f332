package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScanResult 市场扫描命中记录
type ScanResult struct {
	Id         int64  `gorm:"primaryKey;autoIncrement"`
	Symbol     string `gorm:"index"`
	Direction  string `gorm:"index"`
	Confidence float64
	Price      decimal.Decimal `gorm:"type:decimal(24,8)"`
	Reason     string
	CreatedAt  time.Time `gorm:"index"`
}

const (
	DirectionBullish = "bullish"
	DirectionBearish = "bearish"
)
