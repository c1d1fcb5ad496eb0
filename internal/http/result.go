package httpapi

import (
	"errors"
	"net/http"

	"github.com/rxnen/eldersafe/internal/service"
)

// 响应码
const (
	ResultSuccess = 2000
	ResultError   = -1
)

// Result 响应包装。Degraded 表示存储不可用，result 为兜底值
// （空清单、N/A 评分、零统计），客户端可据此提示稍后重试。
type Result[T any] struct {
	Code     int    `json:"code"`
	Type     string `json:"type"`
	Message  string `json:"message"`
	Degraded bool   `json:"degraded,omitempty"`
	Result   T      `json:"result"`
}

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

// Fallback 只读接口的响应：err 非空时 result 应已替换为兜底值
func Fallback[T any](result T, err error) Result[T] {
	res := Ok(result)
	if err != nil {
		res.Message = "storage unavailable"
		res.Degraded = true
	}
	return res
}

func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message}
}

// statusOf 服务层错误到 HTTP 状态码
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidRoom),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidQuestion):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
