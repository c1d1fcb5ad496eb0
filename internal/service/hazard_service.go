package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rxnen/eldersafe/internal/catalog"
	"github.com/rxnen/eldersafe/internal/evaluator"
	"github.com/rxnen/eldersafe/internal/models"
	"github.com/rxnen/eldersafe/internal/report"
	"github.com/rxnen/eldersafe/internal/repository"

	"go.uber.org/zap"
)

// HazardService 居家安全评估服务：房间清单、隐患状态、评分与推荐
type HazardService struct {
	engine        *evaluator.Engine
	profiles      *repository.ProfileRepository
	rooms         *repository.RoomRepository
	timelineLimit int
	logger        *zap.Logger
	now           func() time.Time
}

// NewHazardService 创建服务；timelineLimit<=0 时使用默认展示条数
func NewHazardService(engine *evaluator.Engine, profiles *repository.ProfileRepository, rooms *repository.RoomRepository, timelineLimit int, logger *zap.Logger) *HazardService {
	if timelineLimit <= 0 {
		timelineLimit = evaluator.DefaultTimelineLimit
	}
	return &HazardService{
		engine:        engine,
		profiles:      profiles,
		rooms:         rooms,
		timelineLimit: timelineLimit,
		logger:        logger,
		now:           time.Now,
	}
}

// SetClock 替换时钟（测试用），同时作用于迁移
func (s *HazardService) SetClock(now func() time.Time) {
	s.now = now
	s.rooms.SetClock(now)
}

// Catalog 当前使用的参考目录
func (s *HazardService) Catalog() *catalog.Catalog {
	return s.engine.Catalog()
}

// ========== 个人档案 ==========

// GetProfile 读取个人档案（未填写时为 nil）
func (s *HazardService) GetProfile(ctx context.Context) (*models.Profile, error) {
	return s.profiles.GetProfile(ctx)
}

// SaveProfile 保存个人档案（设置页）
func (s *HazardService) SaveProfile(ctx context.Context, profile *models.Profile) error {
	if err := s.profiles.SaveProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	s.logger.Info("Profile saved",
		zap.String("mobility", string(profile.Mobility)),
		zap.Bool("vision", bool(profile.Vision)),
		zap.Bool("hearing", bool(profile.Hearing)),
	)
	return nil
}

// IsFirstLoad 是否需要展示引导流程
func (s *HazardService) IsFirstLoad(ctx context.Context) (bool, error) {
	return s.profiles.IsFirstLoad(ctx)
}

// CompleteOnboarding 完成引导流程
func (s *HazardService) CompleteOnboarding(ctx context.Context, profile *models.Profile) error {
	if err := s.profiles.CompleteOnboarding(ctx, profile); err != nil {
		return fmt.Errorf("failed to complete onboarding: %w", err)
	}
	s.logger.Info("Onboarding completed", zap.String("user_type", string(profile.UserType)))
	return nil
}

// ========== 房间清单 ==========

// RoomRequest 新增/编辑房间请求；ID 为 0 表示新增
type RoomRequest struct {
	ID      int             `json:"id,omitempty"`
	Type    models.RoomType `json:"type"`
	Name    string          `json:"name"`
	Answers []int           `json:"answers"`
	Primary models.Flag     `json:"primary"`
}

// GetRooms 读取房间清单
func (s *HazardService) GetRooms(ctx context.Context) ([]models.Room, error) {
	return s.rooms.LoadRooms(ctx)
}

// GetRoom 按编号读取房间
func (s *HazardService) GetRoom(ctx context.Context, id int) (*models.Room, error) {
	rooms, err := s.rooms.LoadRooms(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(rooms, id)
	if i < 0 {
		return nil, ErrRoomNotFound
	}
	return &rooms[i], nil
}

func indexOf(rooms []models.Room, id int) int {
	for i := range rooms {
		if rooms[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *HazardService) validateAnswers(roomType models.RoomType, answers []int) error {
	count := s.engine.Catalog().QuestionCount(roomType)
	if count == 0 {
		return fmt.Errorf("%w: no questions for room type %q", ErrInvalidRoom, roomType)
	}
	for _, q := range answers {
		if q < 0 || q >= count {
			return fmt.Errorf("%w: answer %d out of range for %s", ErrInvalidRoom, q, roomType)
		}
	}
	return nil
}

// AddOrUpdateRoom 新增房间（编号为当前数量+1）或按编号覆盖已有房间。
// 编辑同类型房间时保留历史，答案的变化按状态迁移记录；更换类型视为新房间。
func (s *HazardService) AddOrUpdateRoom(ctx context.Context, req RoomRequest) (*models.Room, error) {
	if err := s.validateAnswers(req.Type, req.Answers); err != nil {
		return nil, err
	}

	var saved models.Room
	err := s.rooms.Mutate(ctx, func(rooms []models.Room) ([]models.Room, bool, error) {
		at := s.now()

		if req.ID == 0 {
			room, err := models.NewRoom(len(rooms)+1, req.Type, req.Name, req.Answers, bool(req.Primary), at)
			if err != nil {
				return nil, false, fmt.Errorf("%w: %v", ErrInvalidRoom, err)
			}
			saved = room
			return append(rooms, room), true, nil
		}

		i := indexOf(rooms, req.ID)
		if i < 0 {
			return nil, false, ErrRoomNotFound
		}

		if rooms[i].Type != req.Type {
			room, err := models.NewRoom(req.ID, req.Type, req.Name, req.Answers, bool(req.Primary), at)
			if err != nil {
				return nil, false, fmt.Errorf("%w: %v", ErrInvalidRoom, err)
			}
			rooms[i] = room
			saved = room
			return rooms, true, nil
		}

		updated, err := s.editRoom(rooms[i], req, at)
		if err != nil {
			return nil, false, err
		}
		rooms[i] = updated
		saved = updated
		return rooms, true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Room saved",
		zap.Int("room_id", saved.ID),
		zap.String("room_type", string(saved.Type)),
		zap.Int("answers", len(saved.Answers)),
	)
	return &saved, nil
}

// editRoom 修改名称与主要房间标记，并把答案差异转换为状态迁移
func (s *HazardService) editRoom(room models.Room, req RoomRequest, at time.Time) (models.Room, error) {
	// 借用 NewRoom 做名称校验与默认名
	fresh, err := models.NewRoom(room.ID, req.Type, req.Name, nil, bool(req.Primary), at)
	if err != nil {
		return room, fmt.Errorf("%w: %v", ErrInvalidRoom, err)
	}
	room.Migrate(at)
	room.Name = fresh.Name
	room.Icon = fresh.Icon
	room.Primary = fresh.Primary

	answers := models.NormalizeAnswers(req.Answers)
	wanted := make(map[int]bool, len(answers))
	for _, q := range answers {
		wanted[q] = true
	}

	for _, q := range append([]int(nil), room.Answers...) {
		if !wanted[q] {
			room.SetStatus(q, models.StatusNotAddressed, s.engine.Catalog().HazardText(room.Type, q), at)
		}
	}
	for _, q := range answers {
		room.SetStatus(q, models.StatusAddressed, s.engine.Catalog().HazardText(room.Type, q), at)
	}
	return room, nil
}

// DeleteRoom 删除房间，其后房间的编号依次前移
func (s *HazardService) DeleteRoom(ctx context.Context, id int) error {
	err := s.rooms.Mutate(ctx, func(rooms []models.Room) ([]models.Room, bool, error) {
		i := indexOf(rooms, id)
		if i < 0 {
			return nil, false, ErrRoomNotFound
		}
		rooms = append(rooms[:i], rooms[i+1:]...)
		for j := range rooms {
			rooms[j].ID = j + 1
		}
		return rooms, true, nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("Room deleted", zap.Int("room_id", id))
	return nil
}

// ========== 隐患状态 ==========

// GetHazardStatus 查询某个问题的当前状态
func (s *HazardService) GetHazardStatus(ctx context.Context, roomID, questionID int) (models.HazardStatus, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return models.StatusNotAddressed, err
	}
	return room.Status(questionID), nil
}

// SetHazardStatus 更新隐患状态并记录历史；状态未变化时返回 false 且不写存储。
// hazardText 为空时使用目录中的隐患描述。
func (s *HazardService) SetHazardStatus(ctx context.Context, roomID, questionID int, status models.HazardStatus, hazardText string) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	changed := false
	err := s.rooms.Mutate(ctx, func(rooms []models.Room) ([]models.Room, bool, error) {
		i := indexOf(rooms, roomID)
		if i < 0 {
			return nil, false, ErrRoomNotFound
		}
		room := &rooms[i]
		if questionID < 0 || questionID >= s.engine.Catalog().QuestionCount(room.Type) {
			return nil, false, fmt.Errorf("%w: %d", ErrInvalidQuestion, questionID)
		}
		if hazardText == "" {
			hazardText = s.engine.Catalog().HazardText(room.Type, questionID)
		}
		changed = room.SetStatus(questionID, status, hazardText, s.now())
		return rooms, changed, nil
	})
	if err != nil {
		return false, err
	}

	if changed {
		s.logger.Info("Hazard status updated",
			zap.Int("room_id", roomID),
			zap.Int("question_id", questionID),
			zap.String("status", string(status)),
		)
	} else {
		s.logger.Debug("Hazard status unchanged",
			zap.Int("room_id", roomID),
			zap.Int("question_id", questionID),
		)
	}
	return changed, nil
}

// DeleteTimelineEntry 删除一条历史记录（不影响当前状态）；未找到时返回 false
func (s *HazardService) DeleteTimelineEntry(ctx context.Context, roomID int, timestamp int64, questionID int) (bool, error) {
	deleted := false
	err := s.rooms.Mutate(ctx, func(rooms []models.Room) ([]models.Room, bool, error) {
		i := indexOf(rooms, roomID)
		if i < 0 {
			return nil, false, ErrRoomNotFound
		}
		deleted = rooms[i].DeleteHistoryEntry(timestamp, questionID)
		return rooms, deleted, nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// Timeline 最近的状态变更；limit<=0 时使用配置的默认条数
func (s *HazardService) Timeline(ctx context.Context, limit int) ([]evaluator.TimelineEntry, error) {
	rooms, err := s.rooms.LoadRooms(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.timelineLimit
	}
	return evaluator.BuildTimeline(rooms, limit), nil
}

// MigrateRoomData 为旧数据补齐状态字段，返回迁移的房间数
func (s *HazardService) MigrateRoomData(ctx context.Context) (int, error) {
	return s.rooms.Migrate(ctx)
}

// ========== 评估结果 ==========

func (s *HazardService) load(ctx context.Context) ([]models.Room, *models.Profile, error) {
	rooms, err := s.rooms.LoadRooms(ctx)
	if err != nil {
		return nil, nil, err
	}
	profile, err := s.profiles.GetProfile(ctx)
	if err != nil {
		return nil, nil, err
	}
	return rooms, profile, nil
}

// Score 首页评分汇总
func (s *HazardService) Score(ctx context.Context) (evaluator.ScoreReport, error) {
	rooms, profile, err := s.load(ctx)
	if err != nil {
		return evaluator.ScoreReport{Score: evaluator.ScoreNotAvailable()}, err
	}
	return s.engine.ComputeScore(rooms, profile), nil
}

// Hazards 按重要性分组的隐患列表
func (s *HazardService) Hazards(ctx context.Context, filter evaluator.HazardFilter) ([]evaluator.HazardSection, error) {
	rooms, profile, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return evaluator.FilterHazards(s.engine.ComputeHazardList(rooms, profile), filter), nil
}

// HazardStats 隐患处理进度
func (s *HazardService) HazardStats(ctx context.Context) (evaluator.HazardStats, error) {
	rooms, profile, err := s.load(ctx)
	if err != nil {
		return evaluator.HazardStats{}, err
	}
	return s.engine.ComputeHazardStats(rooms, profile), nil
}

// Recommendations 各房间推荐产品
func (s *HazardService) Recommendations(ctx context.Context) ([]evaluator.RoomRecommendations, error) {
	rooms, profile, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.ComputeRecommendations(rooms, profile), nil
}

// RoomReport 单个房间未解决的隐患
func (s *HazardService) RoomReport(ctx context.Context, roomID int) ([]catalog.Question, error) {
	rooms, profile, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(rooms, roomID)
	if i < 0 {
		return nil, ErrRoomNotFound
	}
	return s.engine.RoomReport(&rooms[i], profile), nil
}

// Snapshot 导出报告所需的全部数据（一次读取）
func (s *HazardService) Snapshot(ctx context.Context) (*report.Data, error) {
	rooms, profile, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return &report.Data{
		GeneratedAt:     s.now(),
		Profile:         profile,
		Rooms:           rooms,
		Score:           s.engine.ComputeScore(rooms, profile),
		Stats:           s.engine.ComputeHazardStats(rooms, profile),
		Hazards:         s.engine.ComputeHazardList(rooms, profile),
		Recommendations: s.engine.ComputeRecommendations(rooms, profile),
		Timeline:        evaluator.BuildTimeline(rooms, 0),
	}, nil
}
