package rerank

import (
	"context"
	"strconv"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/pipeline"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/pkg/utils"
)

// TopNNode 是 Top-N 截断节点，在排序（及过滤）之后保留前 N 个服务，
// 并为保留下来的服务写入名次 label（从 1 开始）。
//
// 示例：
//
//	p := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &rank.CosineNode{Engine: engine},
//	        &rerank.TopNNode{N: 5},
//	        &explain.Node{...},
//	    },
//	}
type TopNNode struct {
	// N 要保留的服务数量
	// 如果 N <= 0，则不截断
	// 如果 N > len(items)，则返回所有服务
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N > 0 && len(items) > n.N {
		items = items[:n.N]
	}
	for i, it := range items {
		if it == nil {
			continue
		}
		it.PutLabel("position", utils.Label{Value: strconv.Itoa(i + 1), Source: "rerank"})
	}
	return items, nil
}
