package signal

import (
	"context"
	"errors"
)

// MaxLevels 每类价位最多保留的数量, 多余的截断
const MaxLevels = 10

var (
	ErrInvalidSignal  = errors.New("invalid signal payload")
	ErrNotGroupMember = errors.New("provider is not a member of the group")
)

// PublishRequest 原始广播载荷, 价位数组按 JSON 原样接收后再做数值强转
type PublishRequest struct {
	ProviderId  int64  `json:"provider_id"`
	GroupId     int64  `json:"group_id"`
	Symbol      string `json:"symbol"`
	Timeframe   string `json:"timeframe"`
	Entries     []any  `json:"entries"`
	Exits       []any  `json:"exits"`
	TakeProfits []any  `json:"take_profits"`
}

type PublishResult struct {
	BroadcastId string `json:"broadcast_id"`
	Recipients  int    `json:"recipients"`
	Failed      int    `json:"failed"`
	FirstError  string `json:"first_error,omitempty"`
}

// Service 交易信号发布服务接口
type Service interface {
	Publish(ctx context.Context, req PublishRequest) (PublishResult, error)
}
