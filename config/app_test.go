package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := DefaultAppConfig()
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
	if cfg.Recommender.DefaultNRecommendations() != 5 {
		t.Errorf("n_recommendations = %d, want 5", cfg.Recommender.DefaultNRecommendations())
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "servicerec.yaml")
	yml := `
catalog:
  path: /data/services.csv
recommender:
  n_recommendations: 3
  cache_ttl: 30s
  filter_expr: 'service.Price_Category != "High"'
  exclude_ids: [4, 9]
store:
  driver: none
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SERVICEREC_N_RECOMMENDATIONS", "7")
	t.Setenv("SERVICEREC_LOG_FORMAT", "json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Catalog.Path != "/data/services.csv" {
		t.Errorf("catalog.path = %q", cfg.Catalog.Path)
	}
	if cfg.Recommender.NRecommendations != 7 {
		t.Errorf("n_recommendations = %d, want env override 7", cfg.Recommender.NRecommendations)
	}
	if cfg.Recommender.CacheTTL != 30*time.Second {
		t.Errorf("cache_ttl = %v, want 30s", cfg.Recommender.CacheTTL)
	}
	if !reflect.DeepEqual(cfg.Recommender.ExcludeIDs, []int64{4, 9}) {
		t.Errorf("exclude_ids = %v", cfg.Recommender.ExcludeIDs)
	}
	if cfg.Store.Driver != "none" || cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("store/log = %+v %+v", cfg.Store, cfg.Log)
	}
	if cfg.Recommender.BatchConcurrency != 8 {
		t.Errorf("batch_concurrency = %d, want default 8", cfg.Recommender.BatchConcurrency)
	}
}

func TestLoad_EnvSliceField(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("SERVICEREC_EXCLUDE_IDS", "2, 5,11")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg.Recommender.ExcludeIDs, []int64{2, 5, 11}) {
		t.Errorf("exclude_ids = %v", cfg.Recommender.ExcludeIDs)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")

	t.Run("missing explicit file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("expected error")
		}
	})

	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"SERVICEREC_STORE_DRIVER": "etcd"}},
		{"redis without addr", map[string]string{"SERVICEREC_STORE_DRIVER": "redis"}},
		{"zero n", map[string]string{"SERVICEREC_N_RECOMMENDATIONS": "0"}},
		{"bad log level", map[string]string{"SERVICEREC_LOG_LEVEL": "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			if !core.IsInvalidInput(err) {
				t.Errorf("Load() error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestDefaultPipelineConfig(t *testing.T) {
	cfg := DefaultPipelineConfig(3, "", nil)
	var types []string
	for _, nc := range cfg.Pipeline.Nodes {
		types = append(types, nc.Type)
	}
	want := []string{NodeRankCosine, NodeRerankTopN, NodePostprocessExplain}
	if !reflect.DeepEqual(types, want) {
		t.Errorf("nodes = %v, want %v", types, want)
	}

	cfg = DefaultPipelineConfig(3, "score > 0.1", []int64{1})
	if cfg.Pipeline.Nodes[1].Type != NodeFilter {
		t.Fatalf("second node = %q, want filter", cfg.Pipeline.Nodes[1].Type)
	}
	filters := cfg.Pipeline.Nodes[1].Config["filters"].([]interface{})
	if len(filters) != 2 {
		t.Errorf("filters = %v, want expr and blacklist", filters)
	}
}
