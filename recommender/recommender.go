// Package recommender 把目录加载、特征编码、余弦打分、过滤、截断与解释组装成一次 Recommend 调用。
//
// 使用示例：
//
//	r := recommender.New(
//	    recommender.WithLoader(catalog.NewCSVLoader("data/service_recommendation_data.csv")),
//	    recommender.WithNRecommendations(5),
//	)
//	if err := r.Setup(ctx); err != nil { ... }
//	recs, err := r.Recommend(ctx, core.Profile{"Target_Business_Type": "Tech Startup"})
package recommender

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/catalog"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/config"
	_ "github.com/karthikbhavasarsr/ML-Service-Recommender/config/builders"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/explain"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/feature"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/pipeline"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/pkg/utils"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/rank"
)

// Recommendation 是一条推荐结果：服务记录的全部属性 + 相似度 + 推荐理由。
type Recommendation struct {
	catalog.Service
	SimilarityScore float64 `json:"Similarity_Score"`
	Explanation     string  `json:"Explanation"`
}

// Recommender 编排一次推荐。Setup 只能成功一次，之后的状态只读，Recommend 可并发调用。
type Recommender struct {
	loader           catalog.Loader
	schema           catalog.Schema
	n                int
	batchConcurrency int
	cacheTTL         time.Duration
	store            core.Store
	pipelineCfg      *pipeline.Config
	filterExpr       string
	excludeIDs       []int64
	params           map[string]any
	logger           zerolog.Logger
	monitor          Monitor

	setupMu sync.Mutex
	state   atomic.Pointer[state]
	seq     atomic.Uint64
}

// state 是 Setup 的产物，发布后不再修改。
type state struct {
	catalog   *catalog.Catalog
	encoder   *feature.LabelEncoder
	engine    *rank.Engine
	generator *explain.Generator
	pipeline  *pipeline.Pipeline
	version   string // 目录与取值表的指纹，作为缓存 key 的一部分
	cacheable bool   // 含读取 Store 的过滤器时结果随时可能变化，不缓存
}

// New 创建 Recommender，此时尚未加载目录。
func New(opts ...Option) *Recommender {
	d := &core.DefaultRecommendConfig{}
	r := &Recommender{
		schema:           catalog.DefaultSchema(),
		n:                d.DefaultNRecommendations(),
		batchConcurrency: d.DefaultBatchConcurrency(),
		cacheTTL:         d.DefaultCacheTTL(),
		logger:           zerolog.Nop(),
		monitor:          nopMonitor{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.n <= 0 {
		r.n = rank.DefaultNRecommendations
	}
	if r.batchConcurrency <= 0 {
		r.batchConcurrency = d.DefaultBatchConcurrency()
	}
	return r
}

// Setup 加载目录、拟合编码器、编码目录、拟合排序引擎并组装 Pipeline。
// 重复调用返回 USAGE_ERROR。
func (r *Recommender) Setup(ctx context.Context) error {
	r.setupMu.Lock()
	defer r.setupMu.Unlock()

	if r.state.Load() != nil {
		return core.NewUsageError(core.ModuleRecommender, "setup", "recommender already set up")
	}
	if r.loader == nil {
		return core.NewUsageError(core.ModuleRecommender, "setup", "no catalog loader configured")
	}
	if err := r.schema.Validate(); err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	cat, err := r.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("setup: load catalog: %w", err)
	}

	enc := feature.NewEncoder(r.schema)
	matrix, err := enc.FitTransform(cat)
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	fitted, err := enc.Fitted()
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	engine := rank.NewEngine(r.n)
	if err := engine.Fit(matrix, cat.IDs()); err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	gen := explain.NewGenerator(r.schema)
	pcfg := r.pipelineCfg
	if pcfg == nil {
		pcfg = config.DefaultPipelineConfig(r.n, r.filterExpr, r.excludeIDs)
	}
	p, err := config.Build(pcfg, config.Components{
		Engine:    engine,
		Catalog:   cat,
		Generator: gen,
		Store:     r.store,
		N:         r.n,
	})
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	meta := fitted.Metadata()
	st := &state{
		catalog:   cat,
		encoder:   fitted,
		engine:    engine,
		generator: gen,
		pipeline:  p,
		version:   catalogVersion(meta, cat.IDs(), pcfg, r.params),
		cacheable: r.store != nil && !config.UsesStoreFilters(pcfg),
	}
	r.state.Store(st)
	if r.store != nil && !st.cacheable {
		r.logger.Info().Msg("result cache disabled: pipeline reads filters from the store")
	}

	r.logger.Info().
		Int("services", cat.Len()).
		Int("features", meta.FeatureCount).
		Interface("vocabulary_sizes", meta.VocabularySizes()).
		Strs("pipeline", p.NodeNames()).
		Int("n_recommendations", r.n).
		Msg("recommender ready")
	return nil
}

// Ready 返回 Setup 是否已完成。
func (r *Recommender) Ready() bool { return r.state.Load() != nil }

// Metadata 返回已拟合特征空间的描述，Setup 之前返回 USAGE_ERROR。
func (r *Recommender) Metadata() (feature.FeatureMetadata, error) {
	st, err := r.ready("metadata")
	if err != nil {
		return feature.FeatureMetadata{}, err
	}
	return st.encoder.Metadata(), nil
}

// Catalog 返回已加载的目录，Setup 之前返回 USAGE_ERROR。
func (r *Recommender) Catalog() (*catalog.Catalog, error) {
	st, err := r.ready("catalog")
	if err != nil {
		return nil, err
	}
	return st.catalog, nil
}

func (r *Recommender) ready(op string) (*state, error) {
	st := r.state.Load()
	if st == nil {
		return nil, core.NewUsageError(core.ModuleRecommender, op, "recommender is not set up, call Setup first")
	}
	return st, nil
}

// Recommend 为画像返回按相似度降序排列的推荐结果，最多 n 条。
// 画像中目录未出现的取值不报错，按未知处理（结果可能退化为按目录顺序）。
func (r *Recommender) Recommend(ctx context.Context, profile core.Profile) ([]Recommendation, error) {
	start := time.Now()
	st, err := r.ready("recommend")
	if err != nil {
		return nil, err
	}

	norm := r.schema.NormalizeProfile(profile)
	query, unknown := st.encoder.EncodeProfile(norm)
	status := StatusOK
	if len(unknown) > 0 {
		status = StatusDegraded
		for _, attr := range unknown {
			r.monitor.RecordUnknown(attr)
		}
	}

	key := r.cacheKey(st, norm)
	if recs, ok := r.fromCache(ctx, st, key); ok {
		r.monitor.ObserveRequest(status, time.Since(start), len(recs))
		return recs, nil
	}

	rctx := &core.RecommendContext{
		RequestID: strconv.FormatUint(r.seq.Add(1), 10),
		Profile:   norm,
		Query:     query,
		Params:    r.params,
	}
	for _, attr := range unknown {
		rctx.PutLabel("unknown_attr", utils.Label{Value: attr, Source: "feature"})
	}

	items, err := st.pipeline.Run(ctx, rctx, nil)
	if err != nil {
		r.monitor.ObserveRequest(StatusError, time.Since(start), 0)
		return nil, fmt.Errorf("recommend: %w", err)
	}
	if len(items) > r.n {
		items = items[:r.n]
	}

	recs, err := st.toRecommendations(items, norm)
	if err != nil {
		r.monitor.ObserveRequest(StatusError, time.Since(start), 0)
		return nil, fmt.Errorf("recommend: %w", err)
	}
	r.toCache(ctx, st, key, recs)

	r.monitor.ObserveRequest(status, time.Since(start), len(recs))
	r.logger.Debug().
		Str("request_id", rctx.RequestID).
		Strs("unknown", unknown).
		Int("results", len(recs)).
		Dur("took", time.Since(start)).
		Msg("recommend")
	return recs, nil
}

// RecommendBatch 并发为多个画像推荐，结果与输入一一对应。任一请求失败则返回该错误。
func (r *Recommender) RecommendBatch(ctx context.Context, profiles []core.Profile) ([][]Recommendation, error) {
	if _, err := r.ready("recommend_batch"); err != nil {
		return nil, err
	}
	out := make([][]Recommendation, len(profiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.batchConcurrency)
	for i, p := range profiles {
		i, p := i, p
		g.Go(func() error {
			recs, err := r.Recommend(gctx, p)
			if err != nil {
				return fmt.Errorf("profile %d: %w", i, err)
			}
			out[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Close 释放缓存存储。
func (r *Recommender) Close() error {
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}

func (st *state) toRecommendations(items []*core.Item, profile core.Profile) ([]Recommendation, error) {
	recs := make([]Recommendation, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		svc, ok := it.Meta[explain.MetaService].(catalog.Service)
		if !ok {
			if svc, ok = st.catalog.ByID(it.ID); !ok {
				return nil, core.NewDomainError(core.ModuleRecommender, core.ErrorCodeNotFound,
					fmt.Sprintf("service %d not in catalog", it.ID))
			}
		}
		text, ok := it.Meta[explain.MetaExplanation].(string)
		if !ok {
			text = st.generator.Explain(svc, profile)
		}
		recs = append(recs, Recommendation{Service: svc, SimilarityScore: it.Score, Explanation: text})
	}
	return recs, nil
}

func (r *Recommender) cacheKey(st *state, profile core.Profile) string {
	return "servicerec:" + st.version + ":" + profile.Fingerprint()
}

func (r *Recommender) fromCache(ctx context.Context, st *state, key string) ([]Recommendation, bool) {
	if !st.cacheable {
		return nil, false
	}
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if !core.IsStoreNotFound(err) {
			r.logger.Warn().Err(err).Str("store", r.store.Name()).Msg("cache get failed")
		}
		r.monitor.RecordCache(false)
		return nil, false
	}
	var recs []Recommendation
	if err := json.Unmarshal(data, &recs); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("cache entry corrupt")
		r.monitor.RecordCache(false)
		return nil, false
	}
	r.monitor.RecordCache(true)
	return recs, true
}

func (r *Recommender) toCache(ctx context.Context, st *state, key string, recs []Recommendation) {
	if !st.cacheable {
		return
	}
	data, err := json.Marshal(recs)
	if err != nil {
		r.logger.Warn().Err(err).Msg("cache encode failed")
		return
	}
	if err := r.store.Set(ctx, key, data, int(r.cacheTTL/time.Second)); err != nil {
		r.logger.Warn().Err(err).Str("store", r.store.Name()).Msg("cache set failed")
	}
}

func catalogVersion(meta feature.FeatureMetadata, ids []int64, pcfg *pipeline.Config, params map[string]any) string {
	h := fnv.New64a()
	if data, err := json.Marshal(meta); err == nil {
		h.Write(data)
	}
	for _, id := range ids {
		h.Write(strconv.AppendInt(nil, id, 10))
		h.Write([]byte{','})
	}
	if data, err := json.Marshal(pcfg); err == nil {
		h.Write(data)
	}
	if data, err := json.Marshal(params); err == nil {
		h.Write(data)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
