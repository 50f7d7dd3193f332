package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/tradelens/alert-engine/internal/entity"
	"github.com/tradelens/alert-engine/internal/repo"
	"github.com/tradelens/alert-engine/internal/service/market"
)

const firePriority = 5

var _ Service = (*Evaluator)(nil)

// Evaluator 单次批处理: 拉取所有活跃报警, 按符号取价, 评估触发条件并入队推送任务
type Evaluator struct {
	alerts  repo.AlertRepo
	events  repo.EventRepo
	queue   repo.QueueRepo
	market  market.Service
	trigger DispatchTrigger

	now func() time.Time
}

type Option func(e *Evaluator)

func WithDispatchTrigger(trigger DispatchTrigger) Option {
	return func(e *Evaluator) {
		e.trigger = trigger
	}
}

func WithNow(now func() time.Time) Option {
	return func(e *Evaluator) {
		e.now = now
	}
}

func NewEvaluator(alerts repo.AlertRepo, events repo.EventRepo, queue repo.QueueRepo, marketSvc market.Service, opts ...Option) *Evaluator {
	e := &Evaluator{
		alerts: alerts,
		events: events,
		queue:  queue,
		market: marketSvc,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Evaluator) Evaluate(ctx context.Context) (EvaluateResult, error) {
	alerts, err := e.alerts.FindActive(ctx)
	if err != nil {
		return EvaluateResult{}, fmt.Errorf("load active alerts: %w", err)
	}

	symbols := lo.Uniq(lo.Map(alerts, func(a entity.Alert, index int) string {
		return a.Symbol
	}))
	prices := e.fetchPrices(ctx, symbols)

	fired := 0
	for _, a := range alerts {
		price, ok := prices[a.Symbol]
		if !ok {
			// 本轮取价失败, 跳过该符号的所有报警
			continue
		}

		didFire, err := e.evaluateOne(ctx, a, price)
		if err != nil {
			return EvaluateResult{}, err
		}
		if didFire {
			fired++
		}
	}

	if e.trigger != nil {
		// best effort, 失败不影响评估结果
		if err := e.trigger.Invoke(ctx); err != nil {
			slog.Warn("failed to trigger dispatcher", "error", err)
		}
	}

	return EvaluateResult{
		SymbolsProcessed: len(prices),
		AlertsFired:      fired,
	}, nil
}

// fetchPrices 并发取每个符号的最新成交价, 失败的符号本轮跳过
func (e *Evaluator) fetchPrices(ctx context.Context, symbols []string) map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(symbols))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			price, err := e.market.LastPrice(ctx, symbol)
			if err != nil {
				slog.Error("failed to fetch last price", "symbol", symbol, "error", err)
				return
			}
			mu.Lock()
			prices[symbol] = price
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()
	return prices
}

func (e *Evaluator) evaluateOne(ctx context.Context, a entity.Alert, price decimal.Decimal) (bool, error) {
	// last_price 无论是否触发都要先更新
	if err := e.alerts.UpdateLastPrice(ctx, a.Id, price); err != nil {
		return false, fmt.Errorf("update last price for alert %d: %w", a.Id, err)
	}

	if !ShouldTrigger(a.Condition, a.LastPrice, price, a.Level) {
		return false, nil
	}

	now := e.now()
	if e.throttled(a, now) {
		return false, nil
	}

	if _, err := e.events.Create(ctx, entity.AlertEvent{
		AlertId:   a.Id,
		Symbol:    a.Symbol,
		Condition: a.Condition,
		Price:     price,
		CreatedAt: now,
	}); err != nil {
		return false, fmt.Errorf("record alert event for alert %d: %w", a.Id, err)
	}

	if err := e.alerts.MarkTriggered(ctx, a.Id, now); err != nil {
		return false, fmt.Errorf("mark alert %d triggered: %w", a.Id, err)
	}

	payload, err := json.Marshal(map[string]any{
		"link":      fmt.Sprintf("app://trading/stock/%s", a.Symbol),
		"symbol":    a.Symbol,
		"condition": a.Condition,
		"level":     a.Level,
		"price":     price,
	})
	if err != nil {
		return false, fmt.Errorf("marshal alert payload: %w", err)
	}

	if _, err = e.queue.Enqueue(ctx, entity.QueueJob{
		IdempotencyKey: uuid.NewString(),
		UserId:         a.UserId,
		Channel:        entity.ChannelPush,
		Title:          fmt.Sprintf("%s alert", a.Symbol),
		Body:           fmt.Sprintf("%s is %s %s (now %s)", a.Symbol, conditionPhrase(a.Condition), a.Level, price),
		Payload:        payload,
		Priority:       firePriority,
		CreatedAt:      now,
	}); err != nil {
		return false, fmt.Errorf("enqueue notification for alert %d: %w", a.Id, err)
	}
	return true, nil
}

// throttled 重复通知节流, 距上次通知不足间隔时即使条件满足也不触发
func (e *Evaluator) throttled(a entity.Alert, now time.Time) bool {
	interval := repeatInterval(a.Repeat)
	if interval <= 0 || a.LastNotifiedAt == nil {
		return false
	}
	return now.Sub(*a.LastNotifiedAt) < interval
}

func repeatInterval(repeat string) time.Duration {
	switch repeat {
	case entity.RepeatOncePerMin:
		return time.Minute
	case entity.RepeatOncePerDay:
		return 24 * time.Hour
	default:
		return 0
	}
}

// ShouldTrigger 触发规则. crossing 条件需要上一次价格, 首次观测不触发.
// 未知条件永不触发.
func ShouldTrigger(condition string, prev decimal.NullDecimal, cur, level decimal.Decimal) bool {
	switch condition {
	case entity.ConditionAbove:
		return cur.GreaterThan(level)
	case entity.ConditionBelow:
		return cur.LessThan(level)
	case entity.ConditionCrossesAbove:
		return prev.Valid && prev.Decimal.LessThanOrEqual(level) && cur.GreaterThan(level)
	case entity.ConditionCrossesBelow:
		return prev.Valid && prev.Decimal.GreaterThanOrEqual(level) && cur.LessThan(level)
	default:
		return false
	}
}

func conditionPhrase(condition string) string {
	switch condition {
	case entity.ConditionAbove:
		return "above"
	case entity.ConditionBelow:
		return "below"
	case entity.ConditionCrossesAbove:
		return "crossing above"
	case entity.ConditionCrossesBelow:
		return "crossing below"
	default:
		return condition
	}
}
