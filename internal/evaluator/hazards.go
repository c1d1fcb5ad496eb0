package evaluator

import (
	"math"

	"github.com/rxnen/eldersafe/internal/catalog"
	"github.com/rxnen/eldersafe/internal/models"
)

// HazardItem 隐患列表中的一项（带实时状态）
type HazardItem struct {
	RoomID     int                 `json:"roomID"`
	RoomName   string              `json:"roomName"`
	RoomType   models.RoomType     `json:"room"`
	Icon       string              `json:"icon"`
	QuestionID int                 `json:"questionID"`
	Hazard     string              `json:"hazard"`
	Status     models.HazardStatus `json:"status"`
	Importance Tier                `json:"importance"`
}

// HazardSection 按重要性分组的隐患
type HazardSection struct {
	Importance Tier         `json:"importance"`
	Title      string       `json:"title"`
	Data       []HazardItem `json:"data"`
}

// HazardFilter 隐患列表过滤条件
type HazardFilter string

const (
	// FilterActive 未处理完成的隐患（默认）
	FilterActive HazardFilter = "active"
	// FilterAll 全部隐患，包括已处理
	FilterAll HazardFilter = "all"
)

// ParseHazardFilter 解析过滤条件；空值为 active，状态名按状态精确过滤
func ParseHazardFilter(s string) (HazardFilter, bool) {
	switch f := HazardFilter(s); {
	case s == "":
		return FilterActive, true
	case f == FilterActive || f == FilterAll:
		return f, true
	case models.HazardStatus(s).Valid():
		return f, true
	}
	return "", false
}

func (f HazardFilter) match(status models.HazardStatus) bool {
	switch f {
	case FilterAll:
		return true
	case FilterActive, "":
		return status != models.StatusAddressed
	default:
		return status == models.HazardStatus(f)
	}
}

// HazardStats 隐患处理进度
type HazardStats struct {
	Total        int `json:"total"`
	InProgress   int `json:"inProgress"`
	Fixed        int `json:"fixed"`
	NotAddressed int `json:"notAddressed"`
	Percentage   int `json:"percentage"`
}

// ComputeHazardList 生成全部未排除问题的隐患列表，按 High/Medium/Low 分组，空分组不返回
func (e *Engine) ComputeHazardList(rooms []models.Room, profile *models.Profile) []HazardSection {
	buckets := make(map[Tier][]HazardItem, len(Tiers))

	for i := range rooms {
		room := &rooms[i]
		for _, q := range e.catalog.Questions(room.Type) {
			c := e.classifier.Classify(room, q.Index, profile)
			if c.Excluded {
				continue
			}
			buckets[c.Tier] = append(buckets[c.Tier], HazardItem{
				RoomID:     room.ID,
				RoomName:   room.Name,
				RoomType:   room.Type,
				Icon:       room.Icon,
				QuestionID: q.Index,
				Hazard:     q.Hazard,
				Status:     room.Status(q.Index),
				Importance: c.Tier,
			})
		}
	}

	sections := make([]HazardSection, 0, len(Tiers))
	for _, tier := range Tiers {
		if len(buckets[tier]) == 0 {
			continue
		}
		sections = append(sections, HazardSection{
			Importance: tier,
			Title:      tier.SectionTitle(),
			Data:       buckets[tier],
		})
	}
	return sections
}

// FilterHazards 按状态过滤隐患分组，过滤后为空的分组被移除
func FilterHazards(sections []HazardSection, filter HazardFilter) []HazardSection {
	out := make([]HazardSection, 0, len(sections))
	for _, s := range sections {
		var items []HazardItem
		for _, item := range s.Data {
			if filter.match(item.Status) {
				items = append(items, item)
			}
		}
		if len(items) == 0 {
			continue
		}
		out = append(out, HazardSection{Importance: s.Importance, Title: s.Title, Data: items})
	}
	return out
}

// ComputeHazardStats 统计未排除问题的处理进度
func (e *Engine) ComputeHazardStats(rooms []models.Room, profile *models.Profile) HazardStats {
	var stats HazardStats
	for i := range rooms {
		room := &rooms[i]
		for q := 0; q < e.catalog.QuestionCount(room.Type); q++ {
			if e.classifier.Excluded(room, q, profile) {
				continue
			}
			stats.Total++
			switch room.Status(q) {
			case models.StatusAddressed:
				stats.Fixed++
			case models.StatusInProgress:
				stats.InProgress++
			default:
				stats.NotAddressed++
			}
		}
	}
	if stats.Total > 0 {
		stats.Percentage = int(math.Round(float64(stats.Fixed) / float64(stats.Total) * 100))
	}
	return stats
}

// RoomReport 单个房间评估完成后的未解决隐患（已排除的问题不列出）
func (e *Engine) RoomReport(room *models.Room, profile *models.Profile) []catalog.Question {
	var out []catalog.Question
	for _, q := range e.catalog.Questions(room.Type) {
		if room.IsResolved(q.Index) || e.classifier.Excluded(room, q.Index, profile) {
			continue
		}
		out = append(out, q)
	}
	return out
}
