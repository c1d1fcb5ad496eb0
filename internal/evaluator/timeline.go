package evaluator

import (
	"sort"

	"github.com/rxnen/eldersafe/internal/models"
)

// DefaultTimelineLimit 时间线默认展示条数（存储不截断）
const DefaultTimelineLimit = 20

// TimelineEntry 时间线中的一条状态变更
type TimelineEntry struct {
	models.HistoryEntry
	RoomID     int             `json:"roomId"`
	RoomName   string          `json:"roomName"`
	RoomType   models.RoomType `json:"roomType"`
	RoomIcon   string          `json:"roomIcon"`
	EntryIndex int             `json:"entryIndex"`
}

// BuildTimeline 合并所有房间的历史记录，按时间倒序，最多 limit 条（limit<=0 表示不限）
func BuildTimeline(rooms []models.Room, limit int) []TimelineEntry {
	var entries []TimelineEntry
	for _, room := range rooms {
		for i, h := range room.HazardHistory {
			entries = append(entries, TimelineEntry{
				HistoryEntry: h,
				RoomID:       room.ID,
				RoomName:     room.Name,
				RoomType:     room.Type,
				RoomIcon:     room.Icon,
				EntryIndex:   i,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
