package evaluator

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/rxnen/eldersafe/internal/models"
)

const (
	basicWeight     = 0.4
	importantWeight = 0.6
	// MaxScore 满分
	MaxScore = 5
)

// SafetyScore 家庭安全评分：0..5，或在没有任何房间时为“不可用”（N/A）。
// JSON 编码中不可用记为 -1，与旧版前端保持一致。
type SafetyScore struct {
	value     int
	available bool
}

// ScoreNotAvailable 没有房间时的评分
func ScoreNotAvailable() SafetyScore {
	return SafetyScore{}
}

// ScoreOf 构造 0..5 的评分
func ScoreOf(v int) SafetyScore {
	if v < 0 {
		v = 0
	}
	if v > MaxScore {
		v = MaxScore
	}
	return SafetyScore{value: v, available: true}
}

// Value 返回评分与是否可用
func (s SafetyScore) Value() (int, bool) {
	return s.value, s.available
}

// Available 是否可用
func (s SafetyScore) Available() bool {
	return s.available
}

// String "N/A" 或 "3/5"
func (s SafetyScore) String() string {
	if !s.available {
		return "N/A"
	}
	return fmt.Sprintf("%d/%d", s.value, MaxScore)
}

// Accessibility 首页描述：not / somewhat / very accessible；不可用时为空
func (s SafetyScore) Accessibility() string {
	if !s.available {
		return ""
	}
	switch {
	case s.value > 3:
		return "very"
	case s.value > 2:
		return "somewhat"
	default:
		return "not"
	}
}

// MarshalJSON 不可用编码为 -1
func (s SafetyScore) MarshalJSON() ([]byte, error) {
	if !s.available {
		return []byte("-1"), nil
	}
	return json.Marshal(s.value)
}

// UnmarshalJSON 负数解码为不可用
func (s *SafetyScore) UnmarshalJSON(data []byte) error {
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v < 0 {
		*s = ScoreNotAvailable()
		return nil
	}
	*s = ScoreOf(v)
	return nil
}

// Breakdown 评分明细
type Breakdown struct {
	BasicResolved     int `json:"basicResolved"`
	BasicPossible     int `json:"basicPossible"`
	ImportantResolved int `json:"importantResolved"`
	ImportantPossible int `json:"importantPossible"`
	Excluded          int `json:"excluded"`
}

// Percent 加权完成度 0..100。
// 两个桶都有题目时按 0.4/0.6 加权；只有一个桶时只用该桶；都为空时为 0。
func (b Breakdown) Percent() float64 {
	var pct float64
	switch {
	case b.BasicPossible == 0 && b.ImportantPossible == 0:
		pct = 0
	case b.ImportantPossible == 0:
		pct = ratio(b.BasicResolved, b.BasicPossible) * 100
	case b.BasicPossible == 0:
		pct = ratio(b.ImportantResolved, b.ImportantPossible) * 100
	default:
		pct = (ratio(b.BasicResolved, b.BasicPossible)*basicWeight +
			ratio(b.ImportantResolved, b.ImportantPossible)*importantWeight) * 100
	}
	return math.Min(100, math.Max(0, pct))
}

// Score 将完成度折算为 0..5
func (b Breakdown) Score() int {
	return int(math.Round((b.Percent() / 2) / 10))
}

func ratio(resolved, possible int) float64 {
	if possible == 0 {
		return 0
	}
	return float64(resolved) / float64(possible)
}

// ScoreReport 首页汇总
type ScoreReport struct {
	Score       SafetyScore `json:"score"`
	Rooms       int         `json:"rooms"`
	Hazards     int         `json:"hazards"`
	Precautions int         `json:"precautions"`
	Breakdown   Breakdown   `json:"breakdown"`
}

// ComputeScore 计算家庭安全评分、未解决隐患数与建议措施数。
// hazards 只统计未排除且未解决的问题；precautions 统计目标问题未解决的产品，
// 按房间逐个累加（同一产品可在多个房间重复计数）。
func (e *Engine) ComputeScore(rooms []models.Room, profile *models.Profile) ScoreReport {
	if len(rooms) == 0 {
		return ScoreReport{Score: ScoreNotAvailable()}
	}

	report := ScoreReport{Rooms: len(rooms)}
	b := &report.Breakdown

	for i := range rooms {
		room := &rooms[i]
		for q := 0; q < e.catalog.QuestionCount(room.Type); q++ {
			c := e.classifier.Classify(room, q, profile)
			if c.Excluded {
				b.Excluded++
				continue
			}

			resolved := room.IsResolved(q)
			if !resolved {
				report.Hazards++
			}
			if c.Important() {
				b.ImportantPossible++
				if resolved {
					b.ImportantResolved++
				}
			} else {
				b.BasicPossible++
				if resolved {
					b.BasicResolved++
				}
			}
		}

		for _, p := range e.catalog.Products(room.Type) {
			if !room.IsResolved(p.HazardID) {
				report.Precautions++
			}
		}
	}

	report.Score = ScoreOf(b.Score())
	return report
}
