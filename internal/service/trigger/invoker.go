package trigger

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Invoker 带 bearer token 的函数间 HTTP 触发器,
// 用于评估完成后立刻唤起一次派发.
type Invoker struct {
	url   string
	token string
	cli   *http.Client
}

func NewInvoker(url, token string) *Invoker {
	return &Invoker{
		url:   url,
		token: token,
		cli: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (i *Invoker) Invoke(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.url, nil)
	if err != nil {
		return fmt.Errorf("build trigger request: %w", err)
	}
	if i.token != "" {
		req.Header.Set("Authorization", "Bearer "+i.token)
	}

	resp, err := i.cli.Do(req)
	if err != nil {
		return fmt.Errorf("invoke %s: %w", i.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("invoke %s: status %d", i.url, resp.StatusCode)
	}
	return nil
}
