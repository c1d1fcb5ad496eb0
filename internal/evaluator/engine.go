package evaluator

import (
	"github.com/rxnen/eldersafe/internal/catalog"
)

// Engine 评估引擎：评分、隐患列表、产品推荐与时间线均为纯计算
type Engine struct {
	catalog    *catalog.Catalog
	classifier *Classifier
}

// NewEngine 创建评估引擎
func NewEngine(c *catalog.Catalog) *Engine {
	return &Engine{
		catalog:    c,
		classifier: NewClassifier(c),
	}
}

// Catalog 引擎使用的参考目录
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Classifier 引擎使用的分类器
func (e *Engine) Classifier() *Classifier {
	return e.classifier
}
