package core

import "time"

// RecommendConfig 是推荐相关的配置接口，用于提供默认值。
type RecommendConfig interface {
	// DefaultNRecommendations 返回默认的推荐条数
	DefaultNRecommendations() int

	// DefaultBatchConcurrency 返回批量推荐的默认并发数
	DefaultBatchConcurrency() int

	// DefaultCacheTTL 返回推荐结果缓存的默认过期时间
	DefaultCacheTTL() time.Duration
}

// DefaultRecommendConfig 是默认的推荐配置实现。
type DefaultRecommendConfig struct{}

func (c *DefaultRecommendConfig) DefaultNRecommendations() int {
	return 5
}

func (c *DefaultRecommendConfig) DefaultBatchConcurrency() int {
	return 8
}

func (c *DefaultRecommendConfig) DefaultCacheTTL() time.Duration {
	return 10 * time.Minute
}
