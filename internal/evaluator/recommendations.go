package evaluator

import (
	"github.com/rxnen/eldersafe/internal/catalog"
	"github.com/rxnen/eldersafe/internal/models"
)

// RecommendedProduct 推荐产品；排除规则不适用于当前档案时不标注重要性
type RecommendedProduct struct {
	catalog.Product
	Importance string `json:"importance,omitempty"`
	Label      string `json:"label,omitempty"`
}

// RoomRecommendations 某个房间需要的产品
type RoomRecommendations struct {
	RoomID   int                  `json:"roomID"`
	Title    string               `json:"title"`
	RoomType models.RoomType      `json:"room"`
	Data     []RecommendedProduct `json:"data"`
}

// ComputeRecommendations 为每个房间中未解决的问题挑选目录产品。
// 没有任何需要产品的房间不出现在结果中。
func (e *Engine) ComputeRecommendations(rooms []models.Room, profile *models.Profile) []RoomRecommendations {
	var out []RoomRecommendations

	for i := range rooms {
		room := &rooms[i]
		products := e.catalog.Products(room.Type)

		var needed []RecommendedProduct
		for q := 0; q < e.catalog.QuestionCount(room.Type); q++ {
			if room.IsResolved(q) {
				continue
			}
			excluded := e.classifier.Excluded(room, q, profile)
			for _, p := range products {
				if p.HazardID != q {
					continue
				}
				rec := RecommendedProduct{Product: p}
				if !excluded {
					tier := e.classifier.Tier(room, q, profile)
					rec.Importance = tier.String()
					rec.Label = tier.ProductLabel()
				}
				needed = append(needed, rec)
			}
		}

		if len(needed) == 0 {
			continue
		}
		out = append(out, RoomRecommendations{
			RoomID:   room.ID,
			Title:    room.Name,
			RoomType: room.Type,
			Data:     needed,
		})
	}
	return out
}
