package explain

import (
	"context"
	"fmt"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/catalog"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/pipeline"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/pkg/utils"
)

// Meta 中写入的 key。
const (
	MetaService     = "service"
	MetaExplanation = "explanation"
)

// Node 是后处理节点：把 item 关联回目录记录并生成推荐理由。
// - 写入 meta：service（catalog.Service）、explanation（string）
// - 写入 labels：explain_match（命中的属性，| 分隔），无命中时为 fallback
type Node struct {
	Generator *Generator
	Catalog   *catalog.Catalog
}

func (n *Node) Name() string        { return "postprocess.explain" }
func (n *Node) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *Node) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Generator == nil || n.Catalog == nil {
		return nil, core.NewUsageError(core.ModuleExplain, "process", "explain node needs a generator and a catalog")
	}
	var profile core.Profile
	if rctx != nil {
		profile = rctx.Profile
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		svc, ok := n.Catalog.ByID(it.ID)
		if !ok {
			return nil, &core.DomainError{
				Module:  core.ModuleExplain,
				Op:      "process",
				Code:    core.ErrorCodeNotFound,
				Message: fmt.Sprintf("service %d not in catalog", it.ID),
			}
		}
		if it.Meta == nil {
			it.Meta = make(map[string]any)
		}
		it.Meta[MetaService] = svc
		it.Meta[MetaExplanation] = n.Generator.Explain(svc, profile)

		matches := n.Generator.Matches(svc, profile)
		if len(matches) == 0 {
			it.PutLabel("explain_match", utils.Label{Value: "fallback", Source: "explain"})
			continue
		}
		for _, m := range matches {
			it.PutLabel("explain_match", utils.Label{Value: m.Attribute, Source: "explain"})
		}
	}
	return items, nil
}
