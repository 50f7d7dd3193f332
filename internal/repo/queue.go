package repo

import (
	"context"
	"time"

	"github.com/tradelens/alert-engine/internal/entity"
	"gorm.io/gorm"
)

type QueueRepo interface {
	Enqueue(ctx context.Context, job entity.QueueJob) (int64, error)
	FindPending(ctx context.Context, now time.Time, limit int) ([]entity.QueueJob, error)
	Claim(ctx context.Context, id int64, now time.Time) (entity.QueueJob, bool, error)
	MarkSucceeded(ctx context.Context, id int64) error
	MarkRetrying(ctx context.Context, id int64, attempts int, scheduledAt time.Time, lastError string) error
	MarkFailed(ctx context.Context, id int64, lastError string) error
}

type queueRepo struct {
	db *gorm.DB
}

func NewQueueRepo(db *gorm.DB) QueueRepo {
	return &queueRepo{
		db: db,
	}
}

var pendingStatuses = []string{entity.JobStatusQueued, entity.JobStatusRetrying}

func (r *queueRepo) Enqueue(ctx context.Context, job entity.QueueJob) (int64, error) {
	if job.Status == "" {
		job.Status = entity.JobStatusQueued
	}
	err := r.db.WithContext(ctx).Create(&job).Error
	if err != nil {
		return 0, err
	}
	return job.Id, nil
}

func (r *queueRepo) FindPending(ctx context.Context, now time.Time, limit int) ([]entity.QueueJob, error) {
	var jobs []entity.QueueJob
	err := r.db.WithContext(ctx).
		Where("status IN ?", pendingStatuses).
		Where("scheduled_at IS NULL OR scheduled_at <= ?", now).
		Order("priority DESC").
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// Claim 条件更新占用任务, 只有 queued/retrying -> processing 一步完成,
// 并发 dispatcher 竞争同一任务时只有一个成功.
// 成功后重读整行返回, 调用方拿到的是占用时刻的 attempts 等字段而非查询时的快照.
func (r *queueRepo) Claim(ctx context.Context, id int64, now time.Time) (entity.QueueJob, bool, error) {
	res := r.db.WithContext(ctx).Model(&entity.QueueJob{}).
		Where("id = ? AND status IN ?", id, pendingStatuses).
		Updates(map[string]any{
			"status":    entity.JobStatusProcessing,
			"locked_at": now,
		})
	if res.Error != nil {
		return entity.QueueJob{}, false, res.Error
	}
	if res.RowsAffected != 1 {
		return entity.QueueJob{}, false, nil
	}
	var job entity.QueueJob
	if err := r.db.WithContext(ctx).First(&job, id).Error; err != nil {
		return entity.QueueJob{}, false, err
	}
	return job, true, nil
}

func (r *queueRepo) MarkSucceeded(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&entity.QueueJob{}).Where("id = ?", id).
		Updates(map[string]any{
			"status":     entity.JobStatusSucceeded,
			"last_error": "",
		}).Error
}

func (r *queueRepo) MarkRetrying(ctx context.Context, id int64, attempts int, scheduledAt time.Time, lastError string) error {
	return r.db.WithContext(ctx).Model(&entity.QueueJob{}).Where("id = ?", id).
		Updates(map[string]any{
			"status":       entity.JobStatusRetrying,
			"attempts":     attempts,
			"scheduled_at": scheduledAt,
			"last_error":   lastError,
		}).Error
}

func (r *queueRepo) MarkFailed(ctx context.Context, id int64, lastError string) error {
	return r.db.WithContext(ctx).Model(&entity.QueueJob{}).Where("id = ?", id).
		Updates(map[string]any{
			"status":     entity.JobStatusFailed,
			"last_error": lastError,
		}).Error
}
