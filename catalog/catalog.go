// Package catalog 提供服务目录：已清洗、去重、无空值的服务记录表。
//
// 目录在加载后只读，编码器与解释器都以只读方式消费它，可被并发读取。
package catalog

import (
	"fmt"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
)

// Catalog 是按加载顺序排列的服务记录表。行号即目录顺序，排序同分时以此为准。
type Catalog struct {
	rows  []Service
	index map[int64]int // Service_ID -> 行号
}

// New 用给定记录构建目录，Service_ID 必须唯一。rows 会被复制。
func New(rows []Service) (*Catalog, error) {
	c := &Catalog{
		rows:  make([]Service, len(rows)),
		index: make(map[int64]int, len(rows)),
	}
	copy(c.rows, rows)
	for i, s := range c.rows {
		if prev, ok := c.index[s.ID]; ok {
			return nil, core.NewInvalidInput(core.ModuleCatalog, "new",
				fmt.Sprintf("duplicate Service_ID %d at rows %d and %d", s.ID, prev, i))
		}
		c.index[s.ID] = i
	}
	return c, nil
}

// Len 返回记录条数。
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.rows)
}

// Row 返回第 i 行记录。
func (c *Catalog) Row(i int) Service {
	return c.rows[i]
}

// ByID 按 Service_ID 查找记录。
func (c *Catalog) ByID(id int64) (Service, bool) {
	i, ok := c.index[id]
	if !ok {
		return Service{}, false
	}
	return c.rows[i], true
}

// RowOf 返回 Service_ID 所在行号。
func (c *Catalog) RowOf(id int64) (int, bool) {
	i, ok := c.index[id]
	return i, ok
}

// IDs 返回与行号对齐的 Service_ID 序列（副本）。
func (c *Catalog) IDs() []int64 {
	ids := make([]int64, len(c.rows))
	for i, s := range c.rows {
		ids[i] = s.ID
	}
	return ids
}

// Rows 返回全部记录的副本。
func (c *Catalog) Rows() []Service {
	out := make([]Service, len(c.rows))
	copy(out, c.rows)
	return out
}

// Column 返回类别列按行顺序的取值。
func (c *Catalog) Column(col string) ([]string, error) {
	if !IsCategorical(col) {
		return nil, core.NewInvalidInput(core.ModuleCatalog, "column", fmt.Sprintf("column %q is not categorical", col))
	}
	out := make([]string, len(c.rows))
	for i, s := range c.rows {
		out[i], _ = s.Attr(col)
	}
	return out, nil
}
