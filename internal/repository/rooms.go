package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rxnen/eldersafe/internal/models"
	"github.com/rxnen/eldersafe/internal/store"

	"go.uber.org/zap"
)

// RoomRepository 房间清单（存储键 myRooms，整体以 JSON 数组读写）
//
// 所有写操作经由 Mutate 串行化，避免并发的读-改-写互相覆盖。
type RoomRepository struct {
	kv     store.KV
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewRoomRepository 创建房间仓库
func NewRoomRepository(kv store.KV, logger *zap.Logger) *RoomRepository {
	return &RoomRepository{kv: kv, logger: logger, now: time.Now}
}

// SetClock 替换时钟（测试用）
func (r *RoomRepository) SetClock(now func() time.Time) {
	r.now = now
}

// ErrMalformedInventory 已存储的房间清单无法解析
var ErrMalformedInventory = errors.New("malformed room inventory")

// LoadRooms 读取房间清单；不存在或内容损坏时返回空清单
func (r *RoomRepository) LoadRooms(ctx context.Context) ([]models.Room, error) {
	rooms, err := r.loadRooms(ctx)
	if errors.Is(err, ErrMalformedInventory) {
		r.logger.Warn("Malformed room data, treating as empty", zap.Error(err))
		return []models.Room{}, nil
	}
	return rooms, err
}

func (r *RoomRepository) loadRooms(ctx context.Context) ([]models.Room, error) {
	raw, err := r.kv.Get(ctx, KeyMyRooms)
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return []models.Room{}, nil
		}
		return nil, fmt.Errorf("failed to get rooms: %w", err)
	}

	var rooms []models.Room
	if err := json.Unmarshal([]byte(raw), &rooms); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInventory, err)
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	return rooms, nil
}

func (r *RoomRepository) saveRooms(ctx context.Context, rooms []models.Room) error {
	if rooms == nil {
		rooms = []models.Room{}
	}
	data, err := json.Marshal(rooms)
	if err != nil {
		return fmt.Errorf("failed to marshal rooms: %w", err)
	}
	if err := r.kv.Set(ctx, KeyMyRooms, string(data)); err != nil {
		return fmt.Errorf("failed to save rooms: %w", err)
	}
	return nil
}

// Mutate 串行执行读-改-写：fn 返回 true 时写回修改后的清单。
// 已存储的清单无法解析时返回 ErrMalformedInventory，不覆盖原数据。
func (r *RoomRepository) Mutate(ctx context.Context, fn func(rooms []models.Room) ([]models.Room, bool, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, err := r.loadRooms(ctx)
	if err != nil {
		if errors.Is(err, ErrMalformedInventory) {
			r.logger.Error("Refusing to overwrite malformed room data", zap.Error(err))
		}
		return err
	}

	updated, changed, err := fn(rooms)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return r.saveRooms(ctx, updated)
}

// Migrate 为旧数据补齐 hazardStatus/hazardHistory；仅在有房间被迁移时写回。
// 同一轮迁移使用同一个时间戳。返回迁移的房间数。
func (r *RoomRepository) Migrate(ctx context.Context) (int, error) {
	migrated := 0
	err := r.Mutate(ctx, func(rooms []models.Room) ([]models.Room, bool, error) {
		at := r.now()
		for i := range rooms {
			if rooms[i].Migrate(at) {
				migrated++
			}
		}
		return rooms, migrated > 0, nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to migrate rooms: %w", err)
	}

	if migrated > 0 {
		r.logger.Info("Migrated legacy room data", zap.Int("rooms", migrated))
	}
	return migrated, nil
}
