package market

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Interval string

func (i Interval) ToString() string {
	return string(i)
}

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
)

type Kline struct {
	OpenTime  time.Time
	CloseTime time.Time
	Open      decimal.Decimal
	Close     decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Volume    decimal.Decimal
}

// Service 行情数据服务
type Service interface {
	// LastPrice 最新成交价
	LastPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	// Klines K线数据
	Klines(ctx context.Context, symbol string, interval Interval, startTime, endTime time.Time) ([]Kline, error)
}
