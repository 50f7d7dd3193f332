package alert

import (
	"context"
)

type EvaluateResult struct {
	SymbolsProcessed int `json:"symbols_processed"`
	AlertsFired      int `json:"alerts_fired"`
}

// Service 报警评估服务接口
type Service interface {
	Evaluate(ctx context.Context) (EvaluateResult, error)
}

// DispatchTrigger 评估完成后顺手触发一次派发, 降低推送延迟
type DispatchTrigger interface {
	Invoke(ctx context.Context) error
}
