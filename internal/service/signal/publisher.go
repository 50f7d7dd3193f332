package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/tradelens/alert-engine/internal/entity"
	"github.com/tradelens/alert-engine/internal/repo"
)

const broadcastPriority = 5

var _ Service = (*Publisher)(nil)

// Publisher 校验并广播交易信号: 每个组员一行信号快照加一条推送任务.
// 组员间写入并发执行, 没有跨组员的原子性, 单个组员失败不回滚其他组员.
type Publisher struct {
	groups  repo.GroupRepo
	signals repo.SignalRepo
	queue   repo.QueueRepo

	now func() time.Time
}

type Option func(p *Publisher)

func WithNow(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

func NewPublisher(groups repo.GroupRepo, signals repo.SignalRepo, queue repo.QueueRepo, opts ...Option) *Publisher {
	p := &Publisher{
		groups:  groups,
		signals: signals,
		queue:   queue,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Publish(ctx context.Context, req PublishRequest) (PublishResult, error) {
	if err := validate(req); err != nil {
		return PublishResult{}, err
	}

	// provider 必须是组员, 否则整个请求失败, 不做部分广播
	ok, err := p.groups.IsMember(ctx, req.GroupId, req.ProviderId)
	if err != nil {
		return PublishResult{}, fmt.Errorf("check group membership: %w", err)
	}
	if !ok {
		return PublishResult{}, ErrNotGroupMember
	}

	members, err := p.groups.FindMembers(ctx, req.GroupId)
	if err != nil {
		return PublishResult{}, fmt.Errorf("load group members: %w", err)
	}

	broadcastId := uuid.NewString()
	now := p.now()

	entries := CoerceLevels(req.Entries)
	exits := CoerceLevels(req.Exits)
	takeProfits := CoerceLevels(req.TakeProfits)

	metadata, err := json.Marshal(map[string]any{
		"entries":      entries,
		"exits":        exits,
		"take_profits": takeProfits,
	})
	if err != nil {
		return PublishResult{}, fmt.Errorf("marshal signal metadata: %w", err)
	}

	payload, err := json.Marshal(map[string]any{
		"link":         fmt.Sprintf("app://trading/signal/%s?symbol=%s&timeframe=%s", broadcastId, req.Symbol, req.Timeframe),
		"symbol":       req.Symbol,
		"timeframe":    req.Timeframe,
		"entries":      entries,
		"exits":        exits,
		"take_profits": takeProfits,
	})
	if err != nil {
		return PublishResult{}, fmt.Errorf("marshal signal payload: %w", err)
	}

	var (
		mu       sync.Mutex
		failed   int
		firstErr error
	)
	var wg sync.WaitGroup
	for _, member := range members {
		wg.Add(1)
		go func(member entity.StrategyGroupMember) {
			defer wg.Done()
			if err := p.fanOutOne(ctx, req, member, broadcastId, metadata, payload, now); err != nil {
				slog.Error("signal fan-out failed for recipient",
					"broadcast_id", broadcastId, "recipient_id", member.UserId, "error", err)
				mu.Lock()
				failed++
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(member)
	}
	wg.Wait()

	res := PublishResult{
		BroadcastId: broadcastId,
		Recipients:  len(members),
		Failed:      failed,
	}
	if firstErr != nil {
		res.FirstError = firstErr.Error()
	}
	return res, nil
}

func (p *Publisher) fanOutOne(ctx context.Context, req PublishRequest, member entity.StrategyGroupMember,
	broadcastId string, metadata, payload []byte, now time.Time) error {
	if _, err := p.signals.Create(ctx, entity.TradeSignal{
		BroadcastId: broadcastId,
		GroupId:     req.GroupId,
		ProviderId:  req.ProviderId,
		RecipientId: member.UserId,
		Symbol:      req.Symbol,
		Timeframe:   req.Timeframe,
		Metadata:    metadata,
		CreatedAt:   now,
	}); err != nil {
		return fmt.Errorf("insert trade signal: %w", err)
	}

	if _, err := p.queue.Enqueue(ctx, entity.QueueJob{
		IdempotencyKey: uuid.NewString(),
		UserId:         member.UserId,
		Channel:        entity.ChannelPush,
		Title:          fmt.Sprintf("New trade idea: %s", req.Symbol),
		Body:           fmt.Sprintf("A %s signal was shared with your group", req.Timeframe),
		Payload:        payload,
		Priority:       broadcastPriority,
		CreatedAt:      now,
	}); err != nil {
		return fmt.Errorf("enqueue signal notification: %w", err)
	}
	return nil
}

func validate(req PublishRequest) error {
	if req.ProviderId == 0 {
		return fmt.Errorf("%w: provider_id is required", ErrInvalidSignal)
	}
	if req.GroupId == 0 {
		return fmt.Errorf("%w: group_id is required", ErrInvalidSignal)
	}
	if req.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidSignal)
	}
	if req.Timeframe == "" {
		return fmt.Errorf("%w: timeframe is required", ErrInvalidSignal)
	}
	return nil
}

// CoerceLevels 把原始 JSON 值强转成价位: 数值和可解析的字符串保留,
// 其余(非数值, NaN/Inf)丢弃, 丢弃后再截断到 MaxLevels.
func CoerceLevels(raw []any) []decimal.Decimal {
	levels := lo.FilterMap(raw, func(v any, index int) (decimal.Decimal, bool) {
		return coerceLevel(v)
	})
	if len(levels) > MaxLevels {
		levels = levels[:MaxLevels]
	}
	return levels
}

func coerceLevel(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(val), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(val)
		return d, err == nil
	case decimal.Decimal:
		return val, true
	default:
		return decimal.Decimal{}, false
	}
}
