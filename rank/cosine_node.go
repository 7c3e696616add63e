package rank

import (
	"context"
	"fmt"
	"sort"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/pipeline"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/pkg/utils"
)

// CosineNode 是使用 Engine 的排序 Node。
// - 输入为空时对整个目录打分（召回即全量目录）；否则只对输入 items 打分
// - 查询向量取自 rctx.Query
// - 写入 labels：rank_model
// - 按分数降序、目录行号升序排序，不截断（截断交给 rerank.TopNNode）
type CosineNode struct {
	Engine *Engine
}

func (n *CosineNode) Name() string        { return "rank.cosine" }
func (n *CosineNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *CosineNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Engine == nil {
		return nil, core.NewUsageError(core.ModuleRank, "process", "cosine node has no engine")
	}
	if rctx == nil {
		return nil, core.NewUsageError(core.ModuleRank, "process", "missing recommend context")
	}

	scores, err := n.Engine.Scores(rctx.Query)
	if err != nil {
		return nil, err
	}

	if items == nil {
		items = make([]*core.Item, 0, len(scores))
		for _, s := range scores {
			items = append(items, core.NewItem(s.ServiceID, s.Row))
		}
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		if it.Row < 0 || it.Row >= len(scores) || scores[it.Row].ServiceID != it.ID {
			return nil, core.NewInvalidInput(core.ModuleRank, "process",
				fmt.Sprintf("item %d is not aligned with catalog row %d", it.ID, it.Row))
		}
		it.Score = scores[it.Row].Score
		it.PutLabel("rank_model", utils.Label{Value: "cosine", Source: "rank"})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Row < items[j].Row
	})
	return items, nil
}
