// Package config 负责两类配置：
//   - AppConfig：进程级配置（目录路径、推荐条数、缓存、日志），按 默认值 → YAML 文件 → 环境变量 的顺序加载
//   - Pipeline 配置：节点类型注册表与默认 Pipeline，供 recommender 组装打分/过滤/截断/解释流程
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
)

// EnvPrefix 环境变量前缀，例如 SERVICEREC_CATALOG_PATH。
const EnvPrefix = "SERVICEREC_"

// ConfigPathEnvVar 可覆盖配置文件路径。
const ConfigPathEnvVar = EnvPrefix + "CONFIG"

// DefaultConfigPaths 未显式指定时依次查找的配置文件。
var DefaultConfigPaths = []string{
	"servicerec.yaml",
	"servicerec.yml",
	"/etc/servicerec/config.yaml",
}

// AppConfig 是进程级配置。
type AppConfig struct {
	Catalog      CatalogConfig     `koanf:"catalog"`
	Recommender  RecommenderConfig `koanf:"recommender"`
	Store        StoreConfig       `koanf:"store"`
	Log          LogConfig         `koanf:"log"`
	PipelinePath string            `koanf:"pipeline_path"`
}

type CatalogConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// RecommenderConfig 推荐参数，实现 core.RecommendConfig。
type RecommenderConfig struct {
	NRecommendations int            `koanf:"n_recommendations" validate:"gte=1,lte=1000"`
	CacheTTL         time.Duration  `koanf:"cache_ttl" validate:"gte=0"`
	BatchConcurrency int            `koanf:"batch_concurrency" validate:"gte=1,lte=256"`
	FilterExpr       string         `koanf:"filter_expr"`
	ExcludeIDs       []int64        `koanf:"exclude_ids"`
	Params           map[string]any `koanf:"params"`
}

type StoreConfig struct {
	Driver    string `koanf:"driver" validate:"oneof=memory redis none"`
	RedisAddr string `koanf:"redis_addr" validate:"required_if=Driver redis"`
	RedisDB   int    `koanf:"redis_db" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=console json"`
}

var _ core.RecommendConfig = RecommenderConfig{}

func (c RecommenderConfig) DefaultNRecommendations() int   { return c.NRecommendations }
func (c RecommenderConfig) DefaultBatchConcurrency() int   { return c.BatchConcurrency }
func (c RecommenderConfig) DefaultCacheTTL() time.Duration { return c.CacheTTL }

// DefaultAppConfig 返回默认配置，数值与 core.DefaultRecommendConfig 一致。
func DefaultAppConfig() *AppConfig {
	d := &core.DefaultRecommendConfig{}
	return &AppConfig{
		Catalog: CatalogConfig{Path: "data/service_recommendation_data.csv"},
		Recommender: RecommenderConfig{
			NRecommendations: d.DefaultNRecommendations(),
			CacheTTL:         d.DefaultCacheTTL(),
			BatchConcurrency: d.DefaultBatchConcurrency(),
		},
		Store: StoreConfig{Driver: "memory"},
		Log:   LogConfig{Level: "info", Format: "console"},
	}
}

// 环境变量（去掉前缀、转小写后）到配置 key 的映射，未列出的变量忽略。
var envMappings = map[string]string{
	"catalog_path":                  "catalog.path",
	"n_recommendations":             "recommender.n_recommendations",
	"recommender_n_recommendations": "recommender.n_recommendations",
	"cache_ttl":                     "recommender.cache_ttl",
	"batch_concurrency":             "recommender.batch_concurrency",
	"filter_expr":                   "recommender.filter_expr",
	"exclude_ids":                   "recommender.exclude_ids",
	"store_driver":                  "store.driver",
	"redis_addr":                    "store.redis_addr",
	"redis_db":                      "store.redis_db",
	"log_level":                     "log.level",
	"log_format":                    "log.format",
	"pipeline_path":                 "pipeline_path",
}

var sliceConfigPaths = []string{"recommender.exclude_ids"}

func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return envMappings[key]
}

// Load 加载配置：默认值 → 配置文件（path 为空时查找 ConfigPathEnvVar 与 DefaultConfigPaths，可不存在）→ 环境变量。
// 显式给出的 path 不存在时报错。
func Load(path string) (*AppConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultAppConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &AppConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate 校验配置，错误以 core.DomainError(config, INVALID_INPUT) 返回。
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return core.NewInvalidInput(core.ModuleConfig, "validate", err.Error())
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// processSliceFields 把环境变量里逗号分隔的字符串转换为列表。
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}
