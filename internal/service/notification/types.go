package notification

import "context"

type DispatchResult struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
}

// Service 通知派发服务接口
type Service interface {
	Dispatch(ctx context.Context) (DispatchResult, error)
}
