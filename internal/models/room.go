package models

import (
	"fmt"
	"sort"
	"time"
	"unicode/utf8"
)

// RoomType 房间类型（与参考目录中的房间类型一一对应）
type RoomType string

const (
	RoomBedroom    RoomType = "Bedroom"
	RoomBathroom   RoomType = "Bathroom"
	RoomLivingRoom RoomType = "Living Room"
	RoomKitchen    RoomType = "Kitchen"
	RoomStairway   RoomType = "Stairway"
	RoomExterior   RoomType = "Home Exterior/Garage"
)

// RoomTypes 所有支持的房间类型（展示顺序）
var RoomTypes = []RoomType{
	RoomBedroom,
	RoomBathroom,
	RoomLivingRoom,
	RoomKitchen,
	RoomStairway,
	RoomExterior,
}

var roomIcons = map[RoomType]string{
	RoomBedroom:    "bed",
	RoomBathroom:   "bath",
	RoomLivingRoom: "tv",
	RoomKitchen:    "cutlery",
	RoomStairway:   "signal",
	RoomExterior:   "car",
}

// MaxRoomNameLength 房间名称最大长度（字符数）
const MaxRoomNameLength = 25

// Valid 是否为支持的房间类型
func (t RoomType) Valid() bool {
	_, ok := roomIcons[t]
	return ok
}

// Icon 房间图标名
func (t RoomType) Icon() string {
	return roomIcons[t]
}

// DefaultName 默认房间名 "My <Type>"
func (t RoomType) DefaultName() string {
	return "My " + string(t)
}

// HazardStatus 隐患处理状态
type HazardStatus string

const (
	StatusNotAddressed HazardStatus = "not_addressed"
	StatusInProgress   HazardStatus = "in_progress"
	StatusAddressed    HazardStatus = "addressed"
)

// Valid 是否为合法状态
func (s HazardStatus) Valid() bool {
	switch s {
	case StatusNotAddressed, StatusInProgress, StatusAddressed:
		return true
	}
	return false
}

// StatusEntry 某个问题的当前状态
type StatusEntry struct {
	Status    HazardStatus `json:"status"`
	Timestamp int64        `json:"timestamp"` // Unix 毫秒
}

// HistoryEntry 状态变更记录
type HistoryEntry struct {
	QuestionID int          `json:"questionID"`
	Status     HazardStatus `json:"status"`
	Timestamp  int64        `json:"timestamp"` // Unix 毫秒
	HazardText string       `json:"hazardText"`
}

// Room 已评估的房间（对应存储键 myRooms 中的一项）
//
// Answers 为旧版字段（已解决的问题编号），与 HazardStatus 保持同步：
// 问题编号出现在 Answers 中当且仅当其状态为 addressed。
// HazardStatus/HazardHistory 为 nil 表示旧数据尚未迁移。
type Room struct {
	ID            int                 `json:"id"`
	Type          RoomType            `json:"type"`
	Name          string              `json:"name"`
	Icon          string              `json:"icon"`
	Primary       Flag                `json:"primary"`
	Answers       []int               `json:"answers"`
	HazardStatus  map[int]StatusEntry `json:"hazardStatus"`
	HazardHistory []HistoryEntry      `json:"hazardHistory"`
}

// NewRoom 创建新房间：名称为空时使用默认名，每个已解决问题记一条 addressed 状态（不写历史）
func NewRoom(id int, roomType RoomType, name string, answers []int, primary bool, at time.Time) (Room, error) {
	if !roomType.Valid() {
		return Room{}, fmt.Errorf("unknown room type: %q", roomType)
	}
	if name == "" {
		name = roomType.DefaultName()
	}
	if utf8.RuneCountInString(name) > MaxRoomNameLength {
		return Room{}, fmt.Errorf("room name exceeds %d characters", MaxRoomNameLength)
	}

	room := Room{
		ID:            id,
		Type:          roomType,
		Name:          name,
		Icon:          roomType.Icon(),
		Primary:       Flag(primary),
		Answers:       NormalizeAnswers(answers),
		HazardStatus:  map[int]StatusEntry{},
		HazardHistory: []HistoryEntry{},
	}
	ts := at.UnixMilli()
	for _, q := range room.Answers {
		room.HazardStatus[q] = StatusEntry{Status: StatusAddressed, Timestamp: ts}
	}
	return room, nil
}

// NormalizeAnswers 排序并去重
func NormalizeAnswers(answers []int) []int {
	out := make([]int, 0, len(answers))
	seen := make(map[int]struct{}, len(answers))
	for _, q := range answers {
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	sort.Ints(out)
	return out
}

// IsResolved 问题是否在旧版 answers 中
func (r *Room) IsResolved(questionID int) bool {
	for _, q := range r.Answers {
		if q == questionID {
			return true
		}
	}
	return false
}

// Status 查询问题当前状态：先查状态表，再回退到旧版 answers，否则为 not_addressed
func (r *Room) Status(questionID int) HazardStatus {
	if entry, ok := r.HazardStatus[questionID]; ok && entry.Status != "" {
		return entry.Status
	}
	if r.IsResolved(questionID) {
		return StatusAddressed
	}
	return StatusNotAddressed
}

// SetStatus 状态迁移：写入状态表、在历史头部插入记录并同步 answers。
// 新状态与当前状态相同时不做任何修改并返回 false。
func (r *Room) SetStatus(questionID int, status HazardStatus, hazardText string, at time.Time) bool {
	if r.Status(questionID) == status {
		return false
	}
	if r.HazardStatus == nil {
		r.HazardStatus = map[int]StatusEntry{}
	}

	ts := at.UnixMilli()
	r.HazardStatus[questionID] = StatusEntry{Status: status, Timestamp: ts}
	r.HazardHistory = append([]HistoryEntry{{
		QuestionID: questionID,
		Status:     status,
		Timestamp:  ts,
		HazardText: hazardText,
	}}, r.HazardHistory...)

	if status == StatusAddressed {
		r.addAnswer(questionID)
	} else {
		r.removeAnswer(questionID)
	}
	return true
}

func (r *Room) addAnswer(questionID int) {
	i := sort.SearchInts(r.Answers, questionID)
	if i < len(r.Answers) && r.Answers[i] == questionID {
		return
	}
	r.Answers = append(r.Answers, 0)
	copy(r.Answers[i+1:], r.Answers[i:])
	r.Answers[i] = questionID
}

func (r *Room) removeAnswer(questionID int) {
	out := r.Answers[:0]
	for _, q := range r.Answers {
		if q != questionID {
			out = append(out, q)
		}
	}
	r.Answers = out
}

// DeleteHistoryEntry 按 (timestamp, questionID) 删除第一条匹配的历史记录；
// 不影响当前状态与 answers
func (r *Room) DeleteHistoryEntry(timestamp int64, questionID int) bool {
	for i, entry := range r.HazardHistory {
		if entry.Timestamp == timestamp && entry.QuestionID == questionID {
			r.HazardHistory = append(r.HazardHistory[:i], r.HazardHistory[i+1:]...)
			return true
		}
	}
	return false
}

// NeedsMigration 是否缺少 hazardStatus 或 hazardHistory 字段
func (r *Room) NeedsMigration() bool {
	return r.HazardStatus == nil || r.HazardHistory == nil
}

// Migrate 为旧数据补齐状态字段：answers 中的问题记为 addressed，统一使用同一时间戳，不补历史
func (r *Room) Migrate(at time.Time) bool {
	if !r.NeedsMigration() {
		return false
	}
	if r.HazardStatus == nil {
		r.HazardStatus = map[int]StatusEntry{}
	}
	if r.HazardHistory == nil {
		r.HazardHistory = []HistoryEntry{}
	}
	if r.Answers == nil {
		r.Answers = []int{}
	}
	ts := at.UnixMilli()
	for _, q := range r.Answers {
		r.HazardStatus[q] = StatusEntry{Status: StatusAddressed, Timestamp: ts}
	}
	return true
}
