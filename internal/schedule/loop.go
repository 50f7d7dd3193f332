package schedule

import (
	"context"
	"log/slog"
	"time"
)

// Loop 按固定间隔重复执行任务, 直到 ctx 结束.
// 任务失败只记录日志, 不中断循环.
func Loop(ctx context.Context, task Task, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := task.Run(ctx); err != nil {
			slog.Error("scheduled task failed", "task", task.Name(), "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
