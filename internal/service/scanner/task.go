package scanner

import (
	"context"

	"github.com/tradelens/alert-engine/internal/schedule"
)

type ScanTask struct {
	svc     Service
	symbols []string
}

func NewScanTask(svc Service, symbols []string) schedule.Task {
	return &ScanTask{
		svc:     svc,
		symbols: symbols,
	}
}

func (t *ScanTask) Run(ctx context.Context) error {
	return t.svc.Scan(ctx, t.symbols)
}

func (t *ScanTask) Name() string {
	return "market mover scan task"
}
