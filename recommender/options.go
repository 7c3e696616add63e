package recommender

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/catalog"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/pipeline"
)

// Option 是 Recommender 的配置选项，采用函数式选项模式。
type Option func(*Recommender)

// WithLoader 设置目录来源（必需）。
func WithLoader(l catalog.Loader) Option {
	return func(r *Recommender) { r.loader = l }
}

// WithSchema 设置特征 Schema，默认 catalog.DefaultSchema()。
func WithSchema(s catalog.Schema) Option {
	return func(r *Recommender) { r.schema = s }
}

// WithRecommendConfig 用 core.RecommendConfig 设置推荐条数、批量并发与缓存过期时间。
func WithRecommendConfig(c core.RecommendConfig) Option {
	return func(r *Recommender) {
		if c == nil {
			return
		}
		r.n = c.DefaultNRecommendations()
		r.batchConcurrency = c.DefaultBatchConcurrency()
		r.cacheTTL = c.DefaultCacheTTL()
	}
}

// WithNRecommendations 设置返回条数，<= 0 时使用默认值。
func WithNRecommendations(n int) Option {
	return func(r *Recommender) { r.n = n }
}

// WithBatchConcurrency 设置 RecommendBatch 的最大并发。
func WithBatchConcurrency(n int) Option {
	return func(r *Recommender) { r.batchConcurrency = n }
}

// WithLogger 设置日志，默认不输出。
func WithLogger(l zerolog.Logger) Option {
	return func(r *Recommender) { r.logger = l }
}

// WithStore 启用结果缓存。store 为 nil 时不缓存；ttl <= 0 表示不过期。
func WithStore(s core.Store, ttl time.Duration) Option {
	return func(r *Recommender) {
		r.store = s
		r.cacheTTL = ttl
	}
}

// WithPipelineConfig 使用自定义 Pipeline；未设置时按 n、过滤表达式与排除列表生成默认 Pipeline。
func WithPipelineConfig(cfg *pipeline.Config) Option {
	return func(r *Recommender) { r.pipelineCfg = cfg }
}

// WithFilterExpr 设置默认 Pipeline 的 CEL 保留条件。
func WithFilterExpr(expr string) Option {
	return func(r *Recommender) { r.filterExpr = expr }
}

// WithExcludeIDs 设置默认 Pipeline 中始终排除的服务。
func WithExcludeIDs(ids ...int64) Option {
	return func(r *Recommender) { r.excludeIDs = append(r.excludeIDs, ids...) }
}

// WithParams 设置请求级参数，过滤表达式中以 params 读取，例如 params.max_price。
func WithParams(params map[string]any) Option {
	return func(r *Recommender) {
		if len(params) == 0 {
			return
		}
		if r.params == nil {
			r.params = make(map[string]any, len(params))
		}
		for k, v := range params {
			r.params[k] = v
		}
	}
}

// WithMonitor 设置指标记录器。
func WithMonitor(m Monitor) Option {
	return func(r *Recommender) {
		if m != nil {
			r.monitor = m
		}
	}
}
