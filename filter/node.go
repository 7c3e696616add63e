package filter

import (
	"context"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/pipeline"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该服务就会被过滤掉。
// 过滤器出错时保留该服务，并在请求上记录 filter_error label。
// 过滤不改变剩余服务的相对顺序。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		filtered := false
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				if rctx != nil {
					rctx.PutLabel("filter_error", utils.Label{Value: f.Name(), Source: "filter"})
				}
				continue
			}
			if ok {
				filtered = true
				break
			}
		}
		if filtered {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}
