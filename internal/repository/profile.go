package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/rxnen/eldersafe/internal/models"
	"github.com/rxnen/eldersafe/internal/store"

	"go.uber.org/zap"
)

// ProfileRepository 个人档案与首次使用标记
//
// 保存档案需要先读取已存储的身份，写操作持有 mu 串行执行。
type ProfileRepository struct {
	kv     store.KV
	logger *zap.Logger

	mu sync.Mutex
}

// NewProfileRepository 创建档案仓库
func NewProfileRepository(kv store.KV, logger *zap.Logger) *ProfileRepository {
	return &ProfileRepository{kv: kv, logger: logger}
}

// GetProfile 读取档案；不存在或内容损坏时返回 nil（按未个性化处理）
func (r *ProfileRepository) GetProfile(ctx context.Context) (*models.Profile, error) {
	raw, err := r.kv.Get(ctx, KeyPersonalInfo)
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var profile models.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		r.logger.Warn("Malformed profile data, treating as absent", zap.Error(err))
		return nil, nil
	}
	return &profile, nil
}

// SaveProfile 保存档案；新档案未填写身份时沿用已保存的身份
func (r *ProfileRepository) SaveProfile(ctx context.Context, profile *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveProfile(ctx, profile)
}

func (r *ProfileRepository) saveProfile(ctx context.Context, profile *models.Profile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	toSave := *profile
	if toSave.UserType == "" {
		existing, err := r.GetProfile(ctx)
		if err != nil {
			return err
		}
		if existing != nil {
			toSave.UserType = existing.UserType
		}
	}

	data, err := json.Marshal(&toSave)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := r.kv.Set(ctx, KeyPersonalInfo, string(data)); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// IsFirstLoad 是否尚未完成引导；标记不存在时视为首次使用
func (r *ProfileRepository) IsFirstLoad(ctx context.Context) (bool, error) {
	raw, err := r.kv.Get(ctx, KeyFirstLoad)
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return true, nil
		}
		return true, fmt.Errorf("failed to get first load flag: %w", err)
	}

	first, err := strconv.ParseBool(raw)
	if err != nil {
		r.logger.Warn("Malformed first load flag", zap.String("value", raw))
		return true, nil
	}
	return first, nil
}

// SetFirstLoad 写入首次使用标记
func (r *ProfileRepository) SetFirstLoad(ctx context.Context, first bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setFirstLoad(ctx, first)
}

func (r *ProfileRepository) setFirstLoad(ctx context.Context, first bool) error {
	if err := r.kv.Set(ctx, KeyFirstLoad, strconv.FormatBool(first)); err != nil {
		return fmt.Errorf("failed to set first load flag: %w", err)
	}
	return nil
}

// CompleteOnboarding 保存引导流程填写的档案并关闭首次使用标记。
// 先写档案再写标记：标记写入失败时档案已保存但仍视为首次使用，
// 用户重新提交引导即可，不会出现标记已关闭而档案缺失的状态。
func (r *ProfileRepository) CompleteOnboarding(ctx context.Context, profile *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.saveProfile(ctx, profile); err != nil {
		return err
	}
	return r.setFirstLoad(ctx, false)
}
