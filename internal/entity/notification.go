package entity

import (
	"time"

	"gorm.io/datatypes"
)

// QueueJob 待推送通知队列任务
// Lifecycle: queued -> processing -> succeeded / failed / retrying(回到队列).
type QueueJob struct {
	Id             int64  `gorm:"primaryKey;autoIncrement"`
	IdempotencyKey string `gorm:"uniqueIndex"`
	UserId         int64  `gorm:"index"`
	Channel        string
	Title          string
	Body           string
	Payload        datatypes.JSON
	Status         string `gorm:"index"`
	Attempts       int
	Priority       int        `gorm:"index"`
	ScheduledAt    *time.Time `gorm:"index"`
	LockedAt       *time.Time
	LastError      string
	CreatedAt      time.Time `gorm:"index"`
	UpdatedAt      time.Time
}

func (QueueJob) TableName() string {
	return "notifications_queue"
}

const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusRetrying   = "retrying"
	JobStatusSucceeded  = "succeeded"
	JobStatusFailed     = "failed"
)

const (
	ChannelPush = "push"
)

// UserDevice 用户注册的推送设备
type UserDevice struct {
	Id        int64  `gorm:"primaryKey;autoIncrement"`
	UserId    int64  `gorm:"index"`
	PushToken string `gorm:"uniqueIndex"`
	Platform  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
