package evaluator

import (
	"fmt"

	"github.com/rxnen/eldersafe/internal/catalog"
	"github.com/rxnen/eldersafe/internal/models"
)

// Tier 重要性等级。数值编码 High=0/Medium=1/Low=2 用于隐患分组，
// 字符串编码 high/medium/low 用于产品推荐，两者同源。
type Tier int

const (
	TierHigh Tier = iota
	TierMedium
	TierLow
)

// Tiers 按优先级排列
var Tiers = []Tier{TierHigh, TierMedium, TierLow}

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	case TierLow:
		return "low"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// SectionTitle 隐患列表分组标题
func (t Tier) SectionTitle() string {
	switch t {
	case TierHigh:
		return "High Risk"
	case TierMedium:
		return "Medium Risk"
	default:
		return "Low Risk"
	}
}

// ProductLabel 产品推荐标签
func (t Tier) ProductLabel() string {
	switch t {
	case TierHigh:
		return "Very Important"
	case TierMedium:
		return "Important"
	default:
		return "Good to Have"
	}
}

// ParseTier 解析 high/medium/low
func ParseTier(s string) (Tier, error) {
	for _, t := range Tiers {
		if t.String() == s {
			return t, nil
		}
	}
	return TierLow, fmt.Errorf("invalid tier: %q", s)
}

// Classification 单个问题的分类结果
type Classification struct {
	Excluded bool
	Tier     Tier
}

// Important 是否计入评分的 important 桶（个人条件命中或主要房间）
func (c Classification) Important() bool {
	return c.Tier == TierHigh || c.Tier == TierMedium
}

// Classifier 重要性分类器：纯函数，不修改目录与档案
type Classifier struct {
	catalog *catalog.Catalog
}

// NewClassifier 创建分类器
func NewClassifier(c *catalog.Catalog) *Classifier {
	return &Classifier{catalog: c}
}

// Excluded 问题是否因档案不满足排除规则的条件而不适用。
// 没有排除规则时返回 false。
func (c *Classifier) Excluded(room *models.Room, questionID int, profile *models.Profile) bool {
	attr, ok := c.catalog.Exclusion(room.Type, questionID)
	if !ok {
		return false
	}
	return !profile.Satisfies(attr)
}

// Tier 计算重要性等级（首个命中规则生效）
func (c *Classifier) Tier(room *models.Room, questionID int, profile *models.Profile) Tier {
	switch {
	case profile.HasMobilityAid() && c.catalog.IsImportant(catalog.SetMobility, room.Type, questionID):
		return TierHigh
	case profile.HasVisionImpairment() && c.catalog.IsImportant(catalog.SetVision, room.Type, questionID):
		return TierHigh
	case profile.HasHearingImpairment() && c.catalog.IsImportant(catalog.SetHearing, room.Type, questionID):
		return TierHigh
	case bool(room.Primary):
		return TierMedium
	default:
		return TierLow
	}
}

// Classify 先判断排除，再计算等级
func (c *Classifier) Classify(room *models.Room, questionID int, profile *models.Profile) Classification {
	if c.Excluded(room, questionID, profile) {
		return Classification{Excluded: true, Tier: TierLow}
	}
	return Classification{Tier: c.Tier(room, questionID, profile)}
}
