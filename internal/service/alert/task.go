package alert

import (
	"context"
	"log/slog"

	"github.com/tradelens/alert-engine/internal/schedule"
)

type EvaluateTask struct {
	svc Service
}

func NewEvaluateTask(svc Service) schedule.Task {
	return &EvaluateTask{svc: svc}
}

func (t *EvaluateTask) Run(ctx context.Context) error {
	res, err := t.svc.Evaluate(ctx)
	if err != nil {
		return err
	}
	slog.Info("alert evaluation finished",
		"symbols_processed", res.SymbolsProcessed,
		"alerts_fired", res.AlertsFired)
	return nil
}

func (t *EvaluateTask) Name() string {
	return "alert evaluate task"
}
