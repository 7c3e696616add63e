// Package builders 在 init 中向 config 注册内置 Node 的构建逻辑。
package builders

import (
	"fmt"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/config"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/explain"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/filter"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/pipeline"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/pkg/conv"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/rank"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/rerank"
)

func init() {
	config.Register(config.NodeRankCosine, buildCosineNode)
	config.Register(config.NodeFilter, buildFilterNode)
	config.Register(config.NodeRerankTopN, buildTopNNode)
	config.Register(config.NodePostprocessExplain, buildExplainNode)
}

func buildCosineNode(c config.Components, _ map[string]interface{}) (pipeline.Node, error) {
	if c.Engine == nil {
		return nil, fmt.Errorf("rank.cosine: engine not set")
	}
	return &rank.CosineNode{Engine: c.Engine}, nil
}

func buildFilterNode(c config.Components, cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		switch filterType := conv.ConfigGet[string](filterMap, "type", ""); filterType {
		case "expr":
			f, err := filter.NewExprFilter(conv.ConfigGet[string](filterMap, "expr", ""), c.Catalog)
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)

		case "blacklist":
			var adapter *filter.StoreAdapter
			key := conv.ConfigGet[string](filterMap, "key", "")
			if key != "" && c.Store != nil {
				adapter = filter.NewStoreAdapter(c.Store)
			}
			filters = append(filters, filter.NewBlacklistFilter(conv.SliceAnyToInt64(filterMap["ids"]), adapter, key))

		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}

	return &filter.FilterNode{Filters: filters}, nil
}

func buildTopNNode(c config.Components, cfg map[string]interface{}) (pipeline.Node, error) {
	n := int(conv.ConfigGetInt64(cfg, "n", int64(c.N)))
	if n < 0 {
		return nil, fmt.Errorf("rerank.topn: n must be >= 0, got %d", n)
	}
	// 返回条数不超过 n_recommendations
	if c.N > 0 && (n == 0 || n > c.N) {
		n = c.N
	}
	return &rerank.TopNNode{N: n}, nil
}

func buildExplainNode(c config.Components, cfg map[string]interface{}) (pipeline.Node, error) {
	if c.Generator == nil || c.Catalog == nil {
		return nil, fmt.Errorf("postprocess.explain: generator and catalog are required")
	}
	gen := c.Generator
	if fb := conv.ConfigGet[string](cfg, "fallback", ""); fb != "" {
		gen = explain.NewGenerator(gen.Schema()).WithFallback(fb)
	}
	return &explain.Node{Generator: gen, Catalog: c.Catalog}, nil
}
