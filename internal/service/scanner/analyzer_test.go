package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradelens/alert-engine/internal/entity"
	"github.com/tradelens/alert-engine/internal/service/market"
)

// genKlines 生成模拟K线
// trend: "up" 每根涨0.5%且放量, "down" 每根跌0.5%, 其他横盘
func genKlines(basePrice float64, count int, trend string) []market.Kline {
	klines := make([]market.Kline, count)
	start := time.Now().Add(-time.Duration(count) * 15 * time.Minute)

	for i := 0; i < count; i++ {
		var price, volume float64
		switch trend {
		case "up":
			price = basePrice * (1 + float64(i)*0.005)
			volume = 1000 + float64(i)*100
		case "down":
			price = basePrice * (1 - float64(i)*0.005)
			volume = 1000 + float64(i)*100
		default:
			price = basePrice
			volume = 1000
		}
		open := price / (1 + 0.001)
		klines[i] = market.Kline{
			OpenTime:  start.Add(time.Duration(i) * 15 * time.Minute),
			CloseTime: start.Add(time.Duration(i+1) * 15 * time.Minute),
			Open:      decimal.NewFromFloat(open),
			Close:     decimal.NewFromFloat(price),
			High:      decimal.NewFromFloat(price * 1.001),
			Low:       decimal.NewFromFloat(open * 0.999),
			Volume:    decimal.NewFromFloat(volume),
		}
	}
	return klines
}

func TestMAAnalyzer_Bullish(t *testing.T) {
	a := NewMAAnalyzer()
	mover, ok := a.Analyze(context.Background(), "BTCUSDT", genKlines(50000, 30, "up"))

	require.True(t, ok)
	assert.Equal(t, "BTCUSDT", mover.Symbol)
	assert.Equal(t, entity.DirectionBullish, mover.Direction)
	assert.Greater(t, mover.Confidence, 0.0)
	assert.LessOrEqual(t, mover.Confidence, 1.0)
	assert.False(t, mover.Price.IsZero())
}

func TestMAAnalyzer_Bearish(t *testing.T) {
	a := NewMAAnalyzer()
	mover, ok := a.Analyze(context.Background(), "ETHUSDT", genKlines(3000, 30, "down"))

	require.True(t, ok)
	assert.Equal(t, entity.DirectionBearish, mover.Direction)
}

func TestMAAnalyzer_SidewaysNoMover(t *testing.T) {
	a := NewMAAnalyzer()
	_, ok := a.Analyze(context.Background(), "BTCUSDT", genKlines(50000, 30, "sideways"))
	assert.False(t, ok)
}

func TestMAAnalyzer_TooFewKlines(t *testing.T) {
	a := NewMAAnalyzer()
	_, ok := a.Analyze(context.Background(), "BTCUSDT", genKlines(50000, 5, "up"))
	assert.False(t, ok)
}
