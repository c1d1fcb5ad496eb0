package catalog

import (
	"github.com/rxnen/eldersafe/internal/models"
)

// Question 目录中的评估问题；Index 为房间类型内的序号
type Question struct {
	Index    int    `json:"index"`
	Question string `json:"question"`
	Hazard   string `json:"hazard"` // 未解决时展示的隐患描述
}

// Product 针对某个问题的推荐产品
type Product struct {
	HazardID    int    `json:"hazardID"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Link        string `json:"link,omitempty"`
}

// Set 重要问题集合
type Set string

const (
	SetMobility Set = "Mobility"
	SetVision   Set = "Vision"
	SetHearing  Set = "Hearing"
)

type ref struct {
	room models.RoomType
	id   int
}

type roomCatalog struct {
	questions []Question
	products  []Product
}

// Catalog 只读参考目录：问题、隐患描述、产品、排除规则与重要问题集合。
// 加载后不再修改，所有访问方法返回副本。
type Catalog struct {
	rooms      map[models.RoomType]*roomCatalog
	exclusions map[ref]models.Attribute
	important  map[Set]map[ref]struct{}
}

// RoomTypes 目录中包含的房间类型（按 models.RoomTypes 顺序）
func (c *Catalog) RoomTypes() []models.RoomType {
	out := make([]models.RoomType, 0, len(c.rooms))
	for _, rt := range models.RoomTypes {
		if _, ok := c.rooms[rt]; ok {
			out = append(out, rt)
		}
	}
	return out
}

// QuestionCount 房间类型的问题数量；未知类型为 0
func (c *Catalog) QuestionCount(roomType models.RoomType) int {
	rc, ok := c.rooms[roomType]
	if !ok {
		return 0
	}
	return len(rc.questions)
}

// Question 按序号查找问题
func (c *Catalog) Question(roomType models.RoomType, index int) (Question, bool) {
	rc, ok := c.rooms[roomType]
	if !ok || index < 0 || index >= len(rc.questions) {
		return Question{}, false
	}
	return rc.questions[index], true
}

// Questions 房间类型的全部问题
func (c *Catalog) Questions(roomType models.RoomType) []Question {
	rc, ok := c.rooms[roomType]
	if !ok {
		return nil
	}
	return append([]Question(nil), rc.questions...)
}

// Products 房间类型的全部推荐产品（目录顺序）
func (c *Catalog) Products(roomType models.RoomType) []Product {
	rc, ok := c.rooms[roomType]
	if !ok {
		return nil
	}
	return append([]Product(nil), rc.products...)
}

// HazardText 问题对应的隐患描述；未找到时为空
func (c *Catalog) HazardText(roomType models.RoomType, index int) string {
	q, _ := c.Question(roomType, index)
	return q.Hazard
}

// Exclusion 查找 (问题, 房间类型) 的排除规则
func (c *Catalog) Exclusion(roomType models.RoomType, index int) (models.Attribute, bool) {
	attr, ok := c.exclusions[ref{room: roomType, id: index}]
	return attr, ok
}

// IsImportant 问题是否属于指定的重要问题集合
func (c *Catalog) IsImportant(set Set, roomType models.RoomType, index int) bool {
	_, ok := c.important[set][ref{room: roomType, id: index}]
	return ok
}
