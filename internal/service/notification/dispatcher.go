package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/tradelens/alert-engine/internal/entity"
	"github.com/tradelens/alert-engine/internal/repo"
	"github.com/tradelens/alert-engine/internal/service/push"
)

const (
	defaultBatchSize = 50
	maxBackoffMin    = 5
	lookupRetryDelay = time.Minute
)

var _ Service = (*Dispatcher)(nil)

// Dispatcher 从队列拉取待发任务, 解析收件人设备并经推送中继投递.
// 批大小固定, 充当简单的背压手段.
type Dispatcher struct {
	queue   repo.QueueRepo
	devices repo.DeviceRepo
	pusher  push.Service

	batchSize int
	now       func() time.Time
}

type Option func(d *Dispatcher)

func WithBatchSize(size int) Option {
	return func(d *Dispatcher) {
		d.batchSize = size
	}
}

func WithNow(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

func NewDispatcher(queue repo.QueueRepo, devices repo.DeviceRepo, pusher push.Service, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:     queue,
		devices:   devices,
		pusher:    pusher,
		batchSize: defaultBatchSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Dispatch(ctx context.Context) (DispatchResult, error) {
	jobs, err := d.queue.FindPending(ctx, d.now(), d.batchSize)
	if err != nil {
		return DispatchResult{}, fmt.Errorf("load pending jobs: %w", err)
	}

	var res DispatchResult
	for _, job := range jobs {
		// 用占用成功后重读的行投递, 查询到占用之间别的写入不会丢
		claimed, ok, err := d.queue.Claim(ctx, job.Id, d.now())
		if err != nil {
			slog.Error("failed to claim job", "job_id", job.Id, "error", err)
			continue
		}
		if !ok {
			// 已被并发的 dispatcher 抢走
			continue
		}

		res.Processed++
		if d.deliver(ctx, claimed) {
			res.Sent++
		}
	}
	return res, nil
}

// deliver 投递单个任务并落最终状态, 返回是否全部设备发送成功
func (d *Dispatcher) deliver(ctx context.Context, job entity.QueueJob) bool {
	devices, err := d.devices.FindByUser(ctx, job.UserId)
	if err != nil {
		// 设备查询失败走固定延迟重试, 与发送失败的退避策略无关
		slog.Error("failed to look up devices", "job_id", job.Id, "user_id", job.UserId, "error", err)
		d.markRetrying(ctx, job, d.now().Add(lookupRetryDelay), fmt.Sprintf("device lookup: %v", err))
		return false
	}

	if len(devices) == 0 {
		// 无设备是永久状态, 直接终态失败, 不计入 attempts
		if err := d.queue.MarkFailed(ctx, job.Id, "no registered devices"); err != nil {
			slog.Error("failed to mark job failed", "job_id", job.Id, "error", err)
		}
		return false
	}

	data := d.pushData(job)
	anyFailed := false
	for _, device := range devices {
		err = d.pusher.Send(ctx, push.Message{
			To:    device.PushToken,
			Title: job.Title,
			Body:  job.Body,
			Sound: "default",
			Data:  data,
		})
		if err != nil {
			slog.Error("push delivery failed",
				"job_id", job.Id, "user_id", job.UserId, "platform", device.Platform, "error", err)
			anyFailed = true
		}
	}

	if anyFailed {
		attempts := job.Attempts + 1
		delay := time.Duration(min(maxBackoffMin, attempts)) * time.Minute
		d.markRetrying(ctx, job, d.now().Add(delay), "push delivery failed")
		return false
	}

	if err = d.queue.MarkSucceeded(ctx, job.Id); err != nil {
		slog.Error("failed to mark job succeeded", "job_id", job.Id, "error", err)
	}
	return true
}

func (d *Dispatcher) markRetrying(ctx context.Context, job entity.QueueJob, at time.Time, reason string) {
	if err := d.queue.MarkRetrying(ctx, job.Id, job.Attempts+1, at, reason); err != nil {
		slog.Error("failed to mark job retrying", "job_id", job.Id, "error", err)
	}
}

// pushData 任务载荷加上幂等键一起下发
func (d *Dispatcher) pushData(job entity.QueueJob) map[string]any {
	data := make(map[string]any)
	if len(job.Payload) > 0 {
		if err := json.Unmarshal(job.Payload, &data); err != nil {
			slog.Warn("job payload is not a json object", "job_id", job.Id, "error", err)
			data = make(map[string]any)
		}
	}
	data["idempotency_key"] = job.IdempotencyKey
	return data
}
