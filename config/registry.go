package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/catalog"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/explain"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/pipeline"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/pkg/conv"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/rank"
)

// 使用配置驱动时，需在入口处 import _ "github.com/karthikbhavasarsr/ML-Service-Recommender/config/builders"
// 以触发内置 Node（rank.cosine、filter、rerank.topn、postprocess.explain）的 init 注册。

// Components 是构建 Node 时可用的已初始化组件，由 recommender 在 Setup 之后提供。
type Components struct {
	Engine    *rank.Engine
	Catalog   *catalog.Catalog
	Generator *explain.Generator

	// Store 可为 nil，供 blacklist 过滤器从存储读取黑名单
	Store core.Store

	// N 是默认的推荐条数，rerank.topn 未配置 n 时使用
	N int
}

// NodeBuilder 根据已初始化组件与节点 config 构建 Node。
type NodeBuilder func(c Components, config map[string]interface{}) (pipeline.Node, error)

var (
	defaultBuilders   = make(map[string]NodeBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种 Node 的构建逻辑，建议在 init 中调用。
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedTypes 返回当前已注册的 Node 类型列表（排序），用于错误提示与校验。
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	types := make([]string, 0, len(defaultBuilders))
	for t := range defaultBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// NewFactory 返回绑定了 c 的 NodeFactory，包含所有通过 Register 注册的 Node 类型。
func NewFactory(c Components) *pipeline.NodeFactory {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range defaultBuilders {
		b := builder
		f.Register(typeName, func(config map[string]interface{}) (pipeline.Node, error) {
			if config == nil {
				config = map[string]interface{}{}
			}
			return b(c, config)
		})
	}
	return f
}

// Build 校验配置并构建 Pipeline。
func Build(cfg *pipeline.Config, c Components) (*pipeline.Pipeline, error) {
	if err := ValidatePipelineConfig(cfg); err != nil {
		return nil, err
	}
	p, err := cfg.BuildPipeline(NewFactory(c))
	if err != nil {
		return nil, core.NewInvalidInput(core.ModuleConfig, "build_pipeline", err.Error())
	}
	return p, nil
}

// 内置节点类型名
const (
	NodeRankCosine         = "rank.cosine"
	NodeFilter             = "filter"
	NodeRerankTopN         = "rerank.topn"
	NodePostprocessExplain = "postprocess.explain"
)

// DefaultPipelineConfig 返回默认流程：余弦打分 →（可选）过滤 → Top-N → 解释。
func DefaultPipelineConfig(n int, filterExpr string, excludeIDs []int64) *pipeline.Config {
	cfg := &pipeline.Config{}
	cfg.Pipeline.Name = "default"
	nodes := []pipeline.NodeConfig{{Type: NodeRankCosine}}

	var filters []interface{}
	if filterExpr != "" {
		filters = append(filters, map[string]interface{}{"type": "expr", "expr": filterExpr})
	}
	if len(excludeIDs) > 0 {
		ids := make([]interface{}, len(excludeIDs))
		for i, id := range excludeIDs {
			ids[i] = id
		}
		filters = append(filters, map[string]interface{}{"type": "blacklist", "ids": ids})
	}
	if len(filters) > 0 {
		nodes = append(nodes, pipeline.NodeConfig{
			Type:   NodeFilter,
			Config: map[string]interface{}{"filters": filters},
		})
	}

	nodes = append(nodes,
		pipeline.NodeConfig{Type: NodeRerankTopN, Config: map[string]interface{}{"n": n}},
		pipeline.NodeConfig{Type: NodePostprocessExplain},
	)
	cfg.Pipeline.Nodes = nodes
	return cfg
}

// UsesStoreFilters 返回 Pipeline 中是否有从 Store 读取数据的过滤器（带 key 的 blacklist）。
// 这类过滤器的结果随 Store 内容变化，推荐结果不能缓存。
func UsesStoreFilters(cfg *pipeline.Config) bool {
	if cfg == nil {
		return false
	}
	for _, nc := range cfg.Pipeline.Nodes {
		if nc.Type != NodeFilter {
			continue
		}
		filters, _ := nc.Config["filters"].([]interface{})
		for _, fc := range filters {
			fm, ok := fc.(map[string]interface{})
			if !ok {
				continue
			}
			if conv.ConfigGet[string](fm, "type", "") == "blacklist" && conv.ConfigGet[string](fm, "key", "") != "" {
				return true
			}
		}
	}
	return false
}

// ValidatePipelineConfig 校验 Pipeline 配置：
//   - 至少一个节点，且每个类型都已注册
//   - 第一个节点必须是 rank.cosine，且只能出现一次（后续节点依赖分数）
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil || len(cfg.Pipeline.Nodes) == 0 {
		return core.NewEmptyInput(core.ModuleConfig, "validate_pipeline", "pipeline has no nodes")
	}
	supported := make(map[string]bool)
	for _, t := range SupportedTypes() {
		supported[t] = true
	}
	ranks := 0
	for i, nc := range cfg.Pipeline.Nodes {
		if !supported[nc.Type] {
			return core.NewInvalidInput(core.ModuleConfig, "validate_pipeline",
				fmt.Sprintf("node %d: unknown type %q (supported: %v)", i, nc.Type, SupportedTypes()))
		}
		if nc.Type == NodeRankCosine {
			ranks++
		}
	}
	if cfg.Pipeline.Nodes[0].Type != NodeRankCosine || ranks != 1 {
		return core.NewInvalidInput(core.ModuleConfig, "validate_pipeline",
			"pipeline must start with exactly one rank.cosine node")
	}
	return nil
}
