package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/tradelens/alert-engine/internal/entity"
	"github.com/tradelens/alert-engine/internal/repo"
	"github.com/tradelens/alert-engine/internal/service/market"
)

const (
	scanInterval = market.Interval15m
	scanLookback = 8 * time.Hour
	scanPriority = 3
)

var _ Service = (*MoverScanner)(nil)

// MoverScanner 扫描给定符号的近期K线, 命中的异动落库并向订阅该符号的用户推送.
// 订阅者 = 在该符号上有活跃报警的用户.
type MoverScanner struct {
	analyzer Analyzer
	scans    repo.ScanRepo
	alerts   repo.AlertRepo
	queue    repo.QueueRepo
	market   market.Service

	now func() time.Time
}

type Option func(s *MoverScanner)

func WithNow(now func() time.Time) Option {
	return func(s *MoverScanner) {
		s.now = now
	}
}

func NewMoverScanner(analyzer Analyzer, scans repo.ScanRepo, alerts repo.AlertRepo,
	queue repo.QueueRepo, marketSvc market.Service, opts ...Option) *MoverScanner {
	s := &MoverScanner{
		analyzer: analyzer,
		scans:    scans,
		alerts:   alerts,
		queue:    queue,
		market:   marketSvc,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MoverScanner) Scan(ctx context.Context, symbols []string) error {
	subscribers, err := s.loadSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("load subscribers: %w", err)
	}

	for _, symbol := range symbols {
		now := s.now()
		klines, err := s.market.Klines(ctx, symbol, scanInterval, now.Add(-scanLookback), now)
		if err != nil {
			slog.Error("failed to get klines", "symbol", symbol, "error", err)
			continue
		}

		mover, ok := s.analyzer.Analyze(ctx, symbol, klines)
		if !ok {
			continue
		}

		slog.Info("market mover detected",
			"symbol", symbol, "direction", mover.Direction, "confidence", mover.Confidence)

		if _, err = s.scans.Create(ctx, entity.ScanResult{
			Symbol:     mover.Symbol,
			Direction:  mover.Direction,
			Confidence: mover.Confidence,
			Price:      mover.Price,
			Reason:     mover.Reason,
			CreatedAt:  now,
		}); err != nil {
			slog.Error("failed to save scan result", "symbol", symbol, "error", err)
			continue
		}

		s.notifySubscribers(ctx, mover, subscribers[symbol], now)
	}
	return nil
}

// loadSubscribers 符号 -> 订阅用户集合
func (s *MoverScanner) loadSubscribers(ctx context.Context) (map[string][]int64, error) {
	alerts, err := s.alerts.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	grouped := lo.GroupBy(alerts, func(a entity.Alert) string {
		return a.Symbol
	})
	return lo.MapValues(grouped, func(as []entity.Alert, symbol string) []int64 {
		return lo.Uniq(lo.Map(as, func(a entity.Alert, index int) int64 {
			return a.UserId
		}))
	}), nil
}

func (s *MoverScanner) notifySubscribers(ctx context.Context, mover Mover, userIds []int64, now time.Time) {
	if len(userIds) == 0 {
		return
	}

	payload, err := json.Marshal(map[string]any{
		"link":       fmt.Sprintf("app://trading/stock/%s", mover.Symbol),
		"symbol":     mover.Symbol,
		"direction":  mover.Direction,
		"confidence": mover.Confidence,
		"price":      mover.Price,
	})
	if err != nil {
		slog.Error("failed to marshal scan payload", "symbol", mover.Symbol, "error", err)
		return
	}

	for _, userId := range userIds {
		if _, err := s.queue.Enqueue(ctx, entity.QueueJob{
			IdempotencyKey: uuid.NewString(),
			UserId:         userId,
			Channel:        entity.ChannelPush,
			Title:          fmt.Sprintf("%s is on the move", mover.Symbol),
			Body:           fmt.Sprintf("Scanner flagged %s as %s", mover.Symbol, mover.Direction),
			Payload:        payload,
			Priority:       scanPriority,
			CreatedAt:      now,
		}); err != nil {
			slog.Error("failed to enqueue scan notification",
				"symbol", mover.Symbol, "user_id", userId, "error", err)
		}
	}
}
