package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/yuqie6/TimeBudget/internal/dto"
)

// Client 访问 TimeBudget 本地 HTTP API，供记录端与 CLI 远程模式使用
type Client struct {
	rc *resty.Client
}

// New 创建客户端；timeout<=0 时使用 10 秒
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rc := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	return &Client{rc: rc}
}

// APIError 服务端返回的非 2xx 响应
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("服务端返回 %d: %s", e.Status, e.Message)
}

func userPath(user, suffix string) string {
	return "/api/users/" + url.PathEscape(user) + suffix
}

// do 发送请求，2xx 时把响应体解码到 out（可为 nil）
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req := c.rc.R().SetContext(ctx)
	if body != nil {
		req = req.SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("请求 %s %s 失败: %w", method, path, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(resp.Body(), &payload)
		if payload.Error == "" {
			payload.Error = resp.String()
		}
		return &APIError{Status: resp.StatusCode(), Message: payload.Error}
	}
	if out == nil || resp.StatusCode() == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// Record 上报一次快照，focus<0 表示没有前台窗口
func (c *Client) Record(ctx context.Context, user string, titles []string, focus int) ([]dto.ClassificationDTO, error) {
	req := dto.RecordActivityRequestDTO{Titles: titles}
	if titles == nil {
		req.Titles = []string{}
	}
	if focus >= 0 {
		req.FocusIndex = &focus
	}
	var out []dto.ClassificationDTO
	if err := c.do(ctx, http.MethodPost, userPath(user, "/activity"), req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Classify(ctx context.Context, user string, titles []string) ([]dto.ClassificationDTO, error) {
	var out []dto.ClassificationDTO
	if err := c.do(ctx, http.MethodPost, userPath(user, "/classify"), dto.ClassifyRequestDTO{Titles: titles}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) TimeLeft(ctx context.Context, user string) ([]dto.BudgetLeftDTO, error) {
	var out []dto.BudgetLeftDTO
	if err := c.do(ctx, http.MethodGet, userPath(user, "/time-left"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Status(ctx context.Context) (*dto.StatusDTO, error) {
	var out dto.StatusDTO
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
