// Package rank 提供基于余弦相似度的排序引擎及其 Pipeline 节点。
package rank

import (
	"fmt"
	"sort"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/feature"
)

// DefaultNRecommendations 是未指定时返回的推荐条数。
const DefaultNRecommendations = 5

// Scored 是一条排序结果：服务 ID、所在目录行号与相似度。
type Scored struct {
	ServiceID int64
	Row       int
	Score     float64
}

// Engine 持有编码后的目录矩阵与行对齐的 Service_ID 序列。
//
// Fit 之后只读；Rank / Scores 每次分配新的结果切片，可被并发调用。
// 行 i 与 ids[i] 始终描述同一个服务。
type Engine struct {
	n      int
	matrix feature.Matrix
	ids    []int64
	norms  []float64 // 每行范数，Fit 时预计算
	width  int
	fitted bool
}

// NewEngine 创建排序引擎。n <= 0 时使用 DefaultNRecommendations。
func NewEngine(n int) *Engine {
	if n <= 0 {
		n = DefaultNRecommendations
	}
	return &Engine{n: n}
}

// N 返回每次最多返回的条数。
func (e *Engine) N() int { return e.n }

// Width 返回已拟合的特征维度。
func (e *Engine) Width() int { return e.width }

// Len 返回已拟合的目录行数。
func (e *Engine) Len() int { return len(e.ids) }

// Fit 保存编码矩阵与对齐的 ID 序列（均复制）。
// 矩阵为空返回 EMPTY_INPUT；行数与 ID 数不一致、行宽不一致返回 SHAPE_MISMATCH。
func (e *Engine) Fit(matrix feature.Matrix, ids []int64) error {
	if len(matrix) == 0 {
		return core.NewEmptyInput(core.ModuleRank, "fit", "encoded catalog has zero rows")
	}
	if len(matrix) != len(ids) {
		return &core.DomainError{
			Module:  core.ModuleRank,
			Op:      "fit",
			Code:    core.ErrorCodeShapeMismatch,
			Message: fmt.Sprintf("matrix has %d rows but %d service ids", len(matrix), len(ids)),
		}
	}
	width := len(matrix[0])
	if width == 0 {
		return core.NewEmptyInput(core.ModuleRank, "fit", "encoded catalog has zero feature columns")
	}

	rows := make(feature.Matrix, len(matrix))
	norms := make([]float64, len(matrix))
	for i, row := range matrix {
		if len(row) != width {
			return core.NewShapeMismatch(core.ModuleRank, "fit", width, len(row))
		}
		rows[i] = append(feature.Vector(nil), row...)
		norms[i] = Norm(row)
	}

	e.matrix = rows
	e.ids = append([]int64(nil), ids...)
	e.norms = norms
	e.width = width
	e.fitted = true
	return nil
}

func (e *Engine) check(op string, query feature.Vector) error {
	if !e.fitted {
		return core.NewUsageError(core.ModuleRank, op, "engine is not fitted, call Fit first")
	}
	if len(query) != e.width {
		return core.NewShapeMismatch(core.ModuleRank, op, e.width, len(query))
	}
	return nil
}

// Scores 返回查询向量与每一行的相似度，按目录行顺序，不排序不截断。
func (e *Engine) Scores(query feature.Vector) ([]Scored, error) {
	if err := e.check("scores", query); err != nil {
		return nil, err
	}
	qNorm := Norm(query)
	out := make([]Scored, len(e.matrix))
	for i, row := range e.matrix {
		out[i] = Scored{
			ServiceID: e.ids[i],
			Row:       i,
			Score:     cosineWithNorms(query, row, qNorm, e.norms[i]),
		}
	}
	return out, nil
}

// Rank 返回相似度最高的至多 N 条结果，按分数降序；同分按目录行顺序升序。
func (e *Engine) Rank(query feature.Vector) ([]Scored, error) {
	if err := e.check("rank", query); err != nil {
		return nil, err
	}
	scores, _ := e.Scores(query)
	SortScored(scores)
	if len(scores) > e.n {
		scores = scores[:e.n]
	}
	return scores, nil
}

// SortScored 按分数降序、行号升序原地排序。
func SortScored(scores []Scored) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Row < scores[j].Row
	})
}
