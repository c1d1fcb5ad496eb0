package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rxnen/eldersafe/internal/evaluator"
	"github.com/rxnen/eldersafe/internal/models"

	"go.uber.org/zap"
)

const resultSuccess = 2000

// envelope 服务端统一响应
type envelope struct {
	Code    int             `json:"code"`
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// APIError 服务端返回的业务错误
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("eldersafe API error: %s (status: %d)", e.Message, e.StatusCode)
}

// Score 首页评分
type Score struct {
	evaluator.ScoreReport
	Display       string `json:"display"`
	Accessibility string `json:"accessibility,omitempty"`
}

// RoomInput 新增/编辑房间参数
type RoomInput struct {
	Type    models.RoomType `json:"type"`
	Name    string          `json:"name,omitempty"`
	Answers []int           `json:"answers"`
	Primary bool            `json:"primary"`
}

// Client eldersafe HTTP API 客户端（运维检查与集成测试使用）
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// New 创建客户端
func New(baseURL string, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(1 * time.Second).
		SetHeader("Accept", "application/json")

	return &Client{httpClient: client, logger: logger}
}

// do 发送请求并解出 result 字段
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var env envelope
	req := c.httpClient.R().
		SetContext(ctx).
		SetResult(&env).
		SetError(&env)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Error("eldersafe API call failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}

	if resp.IsError() || env.Code != resultSuccess {
		return &APIError{StatusCode: resp.StatusCode(), Message: env.Message}
	}
	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s response: %w", path, err)
	}
	return nil
}

// Health 健康检查
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, resty.MethodGet, "/healthz", nil, nil)
}

// GetScore 首页评分
func (c *Client) GetScore(ctx context.Context) (*Score, error) {
	var score Score
	if err := c.do(ctx, resty.MethodGet, "/api/v1/score", nil, &score); err != nil {
		return nil, err
	}
	return &score, nil
}

// ListRooms 房间清单
func (c *Client) ListRooms(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if err := c.do(ctx, resty.MethodGet, "/api/v1/rooms", nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// AddRoom 新增房间
func (c *Client) AddRoom(ctx context.Context, in RoomInput) (*models.Room, error) {
	var room models.Room
	if err := c.do(ctx, resty.MethodPost, "/api/v1/rooms", in, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// SetHazardStatus 更新隐患状态，返回是否发生变化
func (c *Client) SetHazardStatus(ctx context.Context, roomID, questionID int, status models.HazardStatus) (bool, error) {
	path := "/api/v1/rooms/" + strconv.Itoa(roomID) + "/hazards/" + strconv.Itoa(questionID)
	var res struct {
		Changed bool `json:"changed"`
	}
	if err := c.do(ctx, resty.MethodPut, path, map[string]any{"status": status}, &res); err != nil {
		return false, err
	}
	return res.Changed, nil
}

// Timeline 最近的状态变更
func (c *Client) Timeline(ctx context.Context, limit int) ([]evaluator.TimelineEntry, error) {
	path := "/api/v1/timeline"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var entries []evaluator.TimelineEntry
	if err := c.do(ctx, resty.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Export 下载 Excel 报告
func (c *Client) Export(ctx context.Context) ([]byte, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get("/api/v1/export.xlsx")
	if err != nil {
		return nil, fmt.Errorf("failed to download report: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: resp.Status()}
	}
	return resp.Body(), nil
}
