package binance

import (
	"context"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
	"github.com/tradelens/alert-engine/internal/service/market"
)

var _ market.Service = (*Service)(nil)

type Service struct {
	cli *binance.Client
}

func NewService(cli *binance.Client) *Service {
	return &Service{cli: cli}
}

func (s *Service) LastPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	prices, err := s.cli.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if len(prices) == 0 {
		return decimal.Zero, fmt.Errorf("symbol %s not found", symbol)
	}
	return decimal.NewFromString(prices[0].Price)
}

func (s *Service) Klines(ctx context.Context, symbol string, interval market.Interval, startTime, endTime time.Time) ([]market.Kline, error) {
	svc := s.cli.NewKlinesService().Symbol(symbol)
	if interval.ToString() != "" {
		svc.Interval(interval.ToString())
	}
	if !startTime.IsZero() {
		svc.StartTime(startTime.UnixMilli())
	}
	if !endTime.IsZero() {
		svc.EndTime(endTime.UnixMilli())
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return nil, err
	}
	return convertKlines(res)
}

func convertKlines(klines []*binance.Kline) ([]market.Kline, error) {
	kls := make([]market.Kline, len(klines))
	for i, k := range klines {
		open, err := decimal.NewFromString(k.Open)
		if err != nil {
			return nil, fmt.Errorf("parse kline open: %w", err)
		}
		klineClose, err := decimal.NewFromString(k.Close)
		if err != nil {
			return nil, fmt.Errorf("parse kline close: %w", err)
		}
		high, err := decimal.NewFromString(k.High)
		if err != nil {
			return nil, fmt.Errorf("parse kline high: %w", err)
		}
		low, err := decimal.NewFromString(k.Low)
		if err != nil {
			return nil, fmt.Errorf("parse kline low: %w", err)
		}
		volume, err := decimal.NewFromString(k.Volume)
		if err != nil {
			return nil, fmt.Errorf("parse kline volume: %w", err)
		}
		kls[i] = market.Kline{
			OpenTime:  time.UnixMilli(k.OpenTime),
			CloseTime: time.UnixMilli(k.CloseTime),
			Open:      open,
			Close:     klineClose,
			High:      high,
			Low:       low,
			Volume:    volume,
		}
	}
	return kls, nil
}
