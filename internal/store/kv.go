package store

import (
	"context"
	"errors"
)

// ErrMiss 键不存在
var ErrMiss = errors.New("cache miss")

// KV 持久化键值存储：值为 JSON 文本，不过期
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
