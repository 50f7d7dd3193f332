package scanner

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/tradelens/alert-engine/internal/entity"
	"github.com/tradelens/alert-engine/internal/service/market"
	"github.com/tradelens/alert-engine/pkg/decimalx"
)

const (
	shortPeriod = 5
	longPeriod  = 20

	// 短长均线偏离超过该比例才算趋势
	minGapRatio = 0.002
)

var _ Analyzer = (*maAnalyzer)(nil)

// maAnalyzer 双均线加量能斜率的规则判断:
// 短均线显著偏离长均线视为趋势, 成交量斜率同向放大提高置信度.
type maAnalyzer struct{}

func NewMAAnalyzer() Analyzer {
	return &maAnalyzer{}
}

func (a *maAnalyzer) Analyze(ctx context.Context, symbol string, klines []market.Kline) (Mover, bool) {
	if len(klines) < longPeriod {
		return Mover{}, false
	}

	closes := lo.Map(klines, func(k market.Kline, index int) decimal.Decimal {
		return k.Close
	})
	volumes := lo.Map(klines, func(k market.Kline, index int) decimal.Decimal {
		return k.Volume
	})

	shortMA := decimalx.Average(closes[len(closes)-shortPeriod:])
	longMA := decimalx.Average(closes[len(closes)-longPeriod:])
	if longMA.IsZero() {
		return Mover{}, false
	}

	gap := shortMA.Sub(longMA).Div(longMA)
	minGap := decimal.NewFromFloat(minGapRatio)

	var direction string
	switch {
	case gap.GreaterThan(minGap):
		direction = entity.DirectionBullish
	case gap.Neg().GreaterThan(minGap):
		direction = entity.DirectionBearish
	default:
		return Mover{}, false
	}

	volumeSlope := decimalx.Slope(volumes[len(volumes)-shortPeriod:])

	// 置信度 = 均线偏离贡献一半, 量能斜率贡献一半
	gapScore := gap.Abs().Mul(decimal.NewFromInt(100))
	slopeScore := volumeSlope
	if direction == entity.DirectionBearish {
		slopeScore = slopeScore.Neg()
	}
	confidence := decimalx.Clamp01(
		gapScore.Mul(decimal.NewFromFloat(0.5)).Add(slopeScore.Mul(decimal.NewFromFloat(0.5))),
	)

	return Mover{
		Symbol:     symbol,
		Direction:  direction,
		Confidence: confidence.InexactFloat64(),
		Price:      closes[len(closes)-1],
		Reason: fmt.Sprintf("MA%d/MA%d gap %s, volume slope %s",
			shortPeriod, longPeriod, gap.StringFixed(4), volumeSlope.StringFixed(4)),
	}, true
}
