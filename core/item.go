package core

import "github.com/karthikbhavasarsr/ML-Service-Recommender/pkg/utils"

// Item 是推荐链路中的统一承载结构：服务 ID、目录行号、分数、元信息、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策；Row 用于同分时按目录原始顺序稳定排序。
type Item struct {
	ID     int64
	Row    int
	Score  float64
	Meta   map[string]any
	Labels map[string]utils.Label
}

func NewItem(id int64, row int) *Item {
	return &Item{
		ID:     id,
		Row:    row,
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// LabelValue 返回 Label 的 Value，不存在时返回空串。
func (it *Item) LabelValue(key string) string {
	if it.Labels == nil {
		return ""
	}
	return it.Labels[key].Value
}
