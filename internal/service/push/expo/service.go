package expo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tradelens/alert-engine/internal/service/push"
)

var _ push.Service = (*Service)(nil)

// Service Expo 推送中继客户端, 没有投递回执, 只有布尔结果
type Service struct {
	url   string
	token string
	cli   *http.Client
}

func NewService(url, token string) *Service {
	return &Service{
		url:   url,
		token: token,
		cli: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type sendResp struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Service) Send(ctx context.Context, msg push.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.cli.Do(req)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push relay returned status %d", resp.StatusCode)
	}

	var res sendResp
	if err = json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return fmt.Errorf("decode push response: %w", err)
	}
	if !res.Success {
		return fmt.Errorf("push relay rejected message: %s", res.Error)
	}
	return nil
}
