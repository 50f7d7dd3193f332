package notification

import (
	"context"
	"log/slog"

	"github.com/tradelens/alert-engine/internal/schedule"
)

type DispatchTask struct {
	svc Service
}

func NewDispatchTask(svc Service) schedule.Task {
	return &DispatchTask{svc: svc}
}

func (t *DispatchTask) Run(ctx context.Context) error {
	res, err := t.svc.Dispatch(ctx)
	if err != nil {
		return err
	}
	slog.Info("notification dispatch finished", "processed", res.Processed, "sent", res.Sent)
	return nil
}

func (t *DispatchTask) Name() string {
	return "notification dispatch task"
}
