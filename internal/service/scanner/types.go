package scanner

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tradelens/alert-engine/internal/service/market"
)

// Mover 扫描命中的异动符号
type Mover struct {
	Symbol     string          `json:"symbol"`
	Direction  string          `json:"direction"`
	Confidence float64         `json:"confidence"`
	Price      decimal.Decimal `json:"price"`
	Reason     string          `json:"reason"`
}

// Service 市场扫描服务接口
type Service interface {
	Scan(ctx context.Context, symbols []string) error
}

// Analyzer 根据K线判断符号是否异动
type Analyzer interface {
	Analyze(ctx context.Context, symbol string, klines []market.Kline) (Mover, bool)
}
