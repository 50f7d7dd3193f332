package push

import "context"

// Message 推送中继接受的消息体
type Message struct {
	To    string         `json:"to"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Sound string         `json:"sound,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

type Service interface {
	Send(ctx context.Context, msg Message) error
}
