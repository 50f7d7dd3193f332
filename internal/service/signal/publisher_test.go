package signal

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradelens/alert-engine/internal/entity"
)

type fakeGroupRepo struct {
	members map[int64][]int64 // groupId -> userIds
}

func (r *fakeGroupRepo) IsMember(ctx context.Context, groupId, userId int64) (bool, error) {
	for _, id := range r.members[groupId] {
		if id == userId {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeGroupRepo) FindMembers(ctx context.Context, groupId int64) ([]entity.StrategyGroupMember, error) {
	var res []entity.StrategyGroupMember
	for _, id := range r.members[groupId] {
		res = append(res, entity.StrategyGroupMember{GroupId: groupId, UserId: id})
	}
	return res, nil
}

type fakeSignalRepo struct {
	mu      sync.Mutex
	signals []entity.TradeSignal
	failFor map[int64]bool // recipientId -> fail insert
}

func (r *fakeSignalRepo) Create(ctx context.Context, signal entity.TradeSignal) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[signal.RecipientId] {
		return 0, errors.New("insert failed")
	}
	r.signals = append(r.signals, signal)
	return int64(len(r.signals)), nil
}

type fakeQueueRepo struct {
	mu   sync.Mutex
	jobs []entity.QueueJob
}

func (r *fakeQueueRepo) Enqueue(ctx context.Context, job entity.QueueJob) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job.Id = int64(len(r.jobs) + 1)
	r.jobs = append(r.jobs, job)
	return job.Id, nil
}

func (r *fakeQueueRepo) FindPending(ctx context.Context, now time.Time, limit int) ([]entity.QueueJob, error) {
	return nil, nil
}

func (r *fakeQueueRepo) Claim(ctx context.Context, id int64, now time.Time) (entity.QueueJob, bool, error) {
	return entity.QueueJob{}, false, nil
}

func (r *fakeQueueRepo) MarkSucceeded(ctx context.Context, id int64) error { return nil }

func (r *fakeQueueRepo) MarkRetrying(ctx context.Context, id int64, attempts int, scheduledAt time.Time, lastError string) error {
	return nil
}

func (r *fakeQueueRepo) MarkFailed(ctx context.Context, id int64, lastError string) error {
	return nil
}

func validRequest() PublishRequest {
	return PublishRequest{
		ProviderId: 1,
		GroupId:    10,
		Symbol:     "BTCUSDT",
		Timeframe:  "4h",
		Entries:    []any{100.0, 101.0},
		Exits:      []any{95.0},
	}
}

func TestPublisher_FanOutToAllMembers(t *testing.T) {
	groups := &fakeGroupRepo{members: map[int64][]int64{10: {1, 2, 3}}}
	signals := &fakeSignalRepo{}
	queue := &fakeQueueRepo{}

	p := NewPublisher(groups, signals, queue)
	res, err := p.Publish(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Recipients)
	assert.Equal(t, 0, res.Failed)
	assert.Empty(t, res.FirstError)
	assert.NotEmpty(t, res.BroadcastId)

	// provider 自己也收到一份
	require.Len(t, signals.signals, 3)
	recipients := make(map[int64]bool)
	for _, s := range signals.signals {
		assert.Equal(t, res.BroadcastId, s.BroadcastId)
		assert.Equal(t, "BTCUSDT", s.Symbol)
		recipients[s.RecipientId] = true
	}
	assert.True(t, recipients[1])
	assert.True(t, recipients[2])
	assert.True(t, recipients[3])

	require.Len(t, queue.jobs, 3)
	for _, job := range queue.jobs {
		assert.Equal(t, entity.ChannelPush, job.Channel)
		assert.NotEmpty(t, job.IdempotencyKey)

		var data map[string]any
		require.NoError(t, json.Unmarshal(job.Payload, &data))
		assert.Contains(t, data["link"], res.BroadcastId)
	}
}

func TestPublisher_NonMemberProviderWritesNothing(t *testing.T) {
	groups := &fakeGroupRepo{members: map[int64][]int64{10: {2, 3}}}
	signals := &fakeSignalRepo{}
	queue := &fakeQueueRepo{}

	p := NewPublisher(groups, signals, queue)
	_, err := p.Publish(context.Background(), validRequest())

	require.ErrorIs(t, err, ErrNotGroupMember)
	assert.Empty(t, signals.signals)
	assert.Empty(t, queue.jobs)
}

func TestPublisher_Validation(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(req *PublishRequest)
	}{
		{name: "missing provider", mutate: func(req *PublishRequest) { req.ProviderId = 0 }},
		{name: "missing group", mutate: func(req *PublishRequest) { req.GroupId = 0 }},
		{name: "missing symbol", mutate: func(req *PublishRequest) { req.Symbol = "" }},
		{name: "missing timeframe", mutate: func(req *PublishRequest) { req.Timeframe = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			groups := &fakeGroupRepo{members: map[int64][]int64{10: {1}}}
			signals := &fakeSignalRepo{}
			queue := &fakeQueueRepo{}

			req := validRequest()
			tc.mutate(&req)

			p := NewPublisher(groups, signals, queue)
			_, err := p.Publish(context.Background(), req)

			require.ErrorIs(t, err, ErrInvalidSignal)
			assert.Empty(t, signals.signals)
			assert.Empty(t, queue.jobs)
		})
	}
}

func TestPublisher_LevelsCoercedThenTruncated(t *testing.T) {
	groups := &fakeGroupRepo{members: map[int64][]int64{10: {1}}}
	signals := &fakeSignalRepo{}
	queue := &fakeQueueRepo{}

	// 15个条目: 非数值在截断前被丢弃
	entries := []any{
		"abc", 1.0, 2.0, "3", 4.0, math.NaN(), 5.0, 6.0, 7.0,
		8.0, 9.0, 10.0, 11.0, 12.0, math.Inf(1),
	}
	req := validRequest()
	req.Entries = entries

	p := NewPublisher(groups, signals, queue)
	_, err := p.Publish(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, signals.signals, 1)
	var meta struct {
		Entries []decimal.Decimal `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(signals.signals[0].Metadata, &meta))

	require.Len(t, meta.Entries, MaxLevels)
	assert.True(t, meta.Entries[0].Equal(decimal.NewFromInt(1)))
	assert.True(t, meta.Entries[2].Equal(decimal.NewFromInt(3)))
	assert.True(t, meta.Entries[MaxLevels-1].Equal(decimal.NewFromInt(10)))
}

func TestPublisher_PartialFanOut(t *testing.T) {
	groups := &fakeGroupRepo{members: map[int64][]int64{10: {1, 2, 3}}}
	signals := &fakeSignalRepo{failFor: map[int64]bool{2: true}}
	queue := &fakeQueueRepo{}

	p := NewPublisher(groups, signals, queue)
	res, err := p.Publish(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Recipients)
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, res.FirstError, "insert failed")
	assert.Len(t, signals.signals, 2)
	assert.Len(t, queue.jobs, 2)
}

func TestCoerceLevels(t *testing.T) {
	levels := CoerceLevels([]any{"1.5", 2.0, "nope", json.Number("3"), math.NaN(), math.Inf(-1)})
	require.Len(t, levels, 3)
	assert.True(t, levels[0].Equal(decimal.NewFromFloat(1.5)))
	assert.True(t, levels[1].Equal(decimal.NewFromInt(2)))
	assert.True(t, levels[2].Equal(decimal.NewFromInt(3)))

	assert.Empty(t, CoerceLevels(nil))
}
