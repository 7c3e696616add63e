package recommender

import (
	"context"
	"math"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/catalog"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/filter"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/pipeline"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/store"
)

const eps = 1e-9

var services = []catalog.Service{
	{ID: 1, Name: "Growth Hacking", Description: "Launch campaigns", TargetBusinessType: "Tech Startup", PriceCategory: "High", LocationArea: "Remote", LanguageSupport: "Both", MatchQuality: "High"},
	{ID: 2, Name: "Shop Setup", Description: "POS and inventory", TargetBusinessType: "Retail", PriceCategory: "Low", LocationArea: "Mumbai", LanguageSupport: "English", MatchQuality: "Medium"},
	{ID: 3, Name: "Cloud Migration", Description: "Move to cloud", TargetBusinessType: "Tech Startup", PriceCategory: "Medium", LocationArea: "Remote", LanguageSupport: "English", MatchQuality: "High"},
	{ID: 4, Name: "Local Ads", Description: "Newspaper ads", TargetBusinessType: "Retail", PriceCategory: "Low", LocationArea: "Delhi", LanguageSupport: "Hindi", MatchQuality: "Low"},
}

var exactProfile = core.Profile{
	catalog.ColTargetBusinessType: "Tech Startup",
	catalog.ColPriceCategory:      "High",
	catalog.ColLocationArea:       "Remote",
	catalog.ColLanguageSupport:    "Both",
}

func newReady(t *testing.T, opts ...Option) *Recommender {
	t.Helper()
	opts = append([]Option{WithLoader(&catalog.StaticLoader{Services: services})}, opts...)
	r := New(opts...)
	if err := r.Setup(context.Background()); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRecommend_ExactMatch(t *testing.T) {
	r := newReady(t, WithNRecommendations(3))

	recs, err := r.Recommend(context.Background(), exactProfile)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len(recs) = %d, want 3", len(recs))
	}
	top := recs[0]
	if top.ID != 1 {
		t.Fatalf("top id = %d, want 1", top.ID)
	}
	if math.Abs(top.SimilarityScore-1.0) > eps {
		t.Errorf("top score = %v, want 1.0", top.SimilarityScore)
	}
	if top.Name != "Growth Hacking" || top.MatchQuality != "High" {
		t.Errorf("record not joined back: %+v", top.Service)
	}
	for _, s := range []string{"business type", "price", "location", "language"} {
		if !strings.Contains(top.Explanation, s) {
			t.Errorf("explanation %q does not mention %s", top.Explanation, s)
		}
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].SimilarityScore > recs[i-1].SimilarityScore {
			t.Errorf("scores not descending at %d: %v > %v", i, recs[i].SimilarityScore, recs[i-1].SimilarityScore)
		}
	}
}

func TestRecommend_AllUnknown(t *testing.T) {
	r := newReady(t, WithNRecommendations(3))

	recs, err := r.Recommend(context.Background(), core.Profile{
		catalog.ColTargetBusinessType: "Nonprofit",
		catalog.ColPriceCategory:      "Free",
	})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len(recs) = %d, want min(n, catalog) = 3", len(recs))
	}
	for i, rec := range recs {
		if rec.SimilarityScore != 0 {
			t.Errorf("score[%d] = %v, want 0", i, rec.SimilarityScore)
		}
		if rec.ID != int64(i+1) {
			t.Errorf("rec[%d].ID = %d, want catalog order", i, rec.ID)
		}
		if rec.Explanation == "" {
			t.Errorf("rec[%d] has empty explanation", i)
		}
	}
}

func TestRecommend_NLargerThanCatalog(t *testing.T) {
	r := newReady(t, WithNRecommendations(10))
	recs, err := r.Recommend(context.Background(), exactProfile)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != len(services) {
		t.Errorf("len(recs) = %d, want %d", len(recs), len(services))
	}
}

func TestRecommend_AliasesAndCase(t *testing.T) {
	r := newReady(t)
	recs, err := r.Recommend(context.Background(), core.Profile{
		"business_type":  "tech startup",
		"price_category": "HIGH",
		"location":       " Remote ",
		"language":       "both",
	})
	if err != nil {
		t.Fatal(err)
	}
	if recs[0].ID != 1 || math.Abs(recs[0].SimilarityScore-1.0) > eps {
		t.Errorf("top = %d (%v), want 1 (1.0)", recs[0].ID, recs[0].SimilarityScore)
	}
}

func TestRecommend_Filters(t *testing.T) {
	r := newReady(t,
		WithNRecommendations(2),
		WithFilterExpr(`service.Price_Category != "High"`),
		WithExcludeIDs(3),
	)
	recs, err := r.Recommend(context.Background(), exactProfile)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("len(recs) = %d, want 2", len(recs))
	}
	for _, rec := range recs {
		if rec.ID == 1 || rec.ID == 3 {
			t.Errorf("filtered service %d returned", rec.ID)
		}
	}
}

func TestRecommender_UsageErrors(t *testing.T) {
	ctx := context.Background()
	r := New(WithLoader(&catalog.StaticLoader{Services: services}))

	if _, err := r.Recommend(ctx, exactProfile); !core.IsUsageError(err) {
		t.Errorf("Recommend before Setup error = %v, want USAGE_ERROR", err)
	}
	if _, err := r.RecommendBatch(ctx, []core.Profile{exactProfile}); !core.IsUsageError(err) {
		t.Errorf("RecommendBatch before Setup error = %v, want USAGE_ERROR", err)
	}
	if _, err := r.Metadata(); !core.IsUsageError(err) {
		t.Errorf("Metadata before Setup error = %v, want USAGE_ERROR", err)
	}
	if r.Ready() {
		t.Error("Ready() = true before Setup")
	}

	if err := r.Setup(ctx); err != nil {
		t.Fatal(err)
	}
	if err := r.Setup(ctx); !core.IsUsageError(err) {
		t.Errorf("second Setup error = %v, want USAGE_ERROR", err)
	}

	if err := New().Setup(ctx); !core.IsUsageError(err) {
		t.Errorf("Setup without loader error = %v, want USAGE_ERROR", err)
	}
}

func TestSetup_EmptyCatalog(t *testing.T) {
	r := New(WithLoader(&catalog.StaticLoader{}))
	if err := r.Setup(context.Background()); !core.IsEmptyInput(err) {
		t.Errorf("Setup() error = %v, want EMPTY_INPUT", err)
	}
	if r.Ready() {
		t.Error("failed Setup must not publish state")
	}
}

func TestSetup_BadFilter(t *testing.T) {
	r := New(WithLoader(&catalog.StaticLoader{Services: services}), WithFilterExpr("score +"))
	if err := r.Setup(context.Background()); !core.IsInvalidInput(err) {
		t.Errorf("Setup() error = %v, want INVALID_INPUT", err)
	}
}

func TestMetadata(t *testing.T) {
	r := newReady(t)
	meta, err := r.Metadata()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{catalog.ColTargetBusinessType, catalog.ColPriceCategory, catalog.ColLocationArea, catalog.ColLanguageSupport}
	if !reflect.DeepEqual(meta.FeatureColumns, want) {
		t.Errorf("FeatureColumns = %v, want %v", meta.FeatureColumns, want)
	}
}

type countingMonitor struct {
	mu       sync.Mutex
	statuses []string
	unknown  []string
	hits     int
	misses   int
}

func (m *countingMonitor) ObserveRequest(status string, _ time.Duration, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, status)
}

func (m *countingMonitor) RecordUnknown(attr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unknown = append(m.unknown, attr)
}

func (m *countingMonitor) RecordCache(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func TestRecommend_Cache(t *testing.T) {
	mon := &countingMonitor{}
	s := store.NewMemoryStore()
	r := newReady(t, WithStore(s, time.Minute), WithMonitor(mon))
	ctx := context.Background()

	first, err := r.Recommend(ctx, exactProfile)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Recommend(ctx, core.Profile{
		"business_type":            "Tech Startup",
		catalog.ColPriceCategory:   "High",
		catalog.ColLocationArea:    "Remote",
		catalog.ColLanguageSupport: "Both",
	})
	if err != nil {
		t.Fatal(err)
	}
	if mon.hits != 1 || mon.misses != 1 {
		t.Errorf("cache hits/misses = %d/%d, want 1/1", mon.hits, mon.misses)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached result differs:\n%+v\n%+v", first, second)
	}
	if s.Len() != 1 {
		t.Errorf("store entries = %d, want 1", s.Len())
	}
}

func TestRecommend_DegradedProfile(t *testing.T) {
	mon := &countingMonitor{}
	r := newReady(t, WithMonitor(mon))

	_, err := r.Recommend(context.Background(), core.Profile{
		catalog.ColTargetBusinessType: "Tech Startup",
		catalog.ColLocationArea:       "Antarctica",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(mon.unknown, []string{catalog.ColLocationArea}) {
		t.Errorf("unknown = %v", mon.unknown)
	}
	if !reflect.DeepEqual(mon.statuses, []string{StatusDegraded}) {
		t.Errorf("statuses = %v", mon.statuses)
	}
}

func TestRecommendBatch(t *testing.T) {
	r := newReady(t, WithBatchConcurrency(2))
	ctx := context.Background()
	profiles := []core.Profile{
		exactProfile,
		{catalog.ColTargetBusinessType: "Retail", catalog.ColLocationArea: "Delhi"},
		{},
		{catalog.ColLanguageSupport: "English"},
	}

	got, err := r.RecommendBatch(ctx, profiles)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(profiles) {
		t.Fatalf("len = %d, want %d", len(got), len(profiles))
	}
	for i, p := range profiles {
		want, err := r.Recommend(ctx, p)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got[i], want) {
			t.Errorf("batch[%d] differs from single request", i)
		}
	}
}

func TestRecommend_ConcurrentReadOnly(t *testing.T) {
	r := newReady(t)
	want, err := r.Recommend(context.Background(), exactProfile)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := r.Recommend(context.Background(), exactProfile)
			if err != nil {
				errs <- err
				return
			}
			if !reflect.DeepEqual(got, want) {
				errs <- context.Canceled
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent Recommend: %v", err)
	}
}

func TestPrometheusMonitor(t *testing.T) {
	reg := prometheus.NewRegistry()
	mon := NewPrometheusMonitor(reg)
	r := newReady(t, WithMonitor(mon))
	ctx := context.Background()

	if _, err := r.Recommend(ctx, exactProfile); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Recommend(ctx, core.Profile{catalog.ColPriceCategory: "Free"}); err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(mon.requests.WithLabelValues(StatusOK)); got != 1 {
		t.Errorf("ok requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(mon.requests.WithLabelValues(StatusDegraded)); got != 1 {
		t.Errorf("degraded requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(mon.unknown.WithLabelValues(catalog.ColPriceCategory)); got != 1 {
		t.Errorf("unknown Price_Category = %v, want 1", got)
	}
	if n, err := testutil.GatherAndCount(reg, "servicerec_request_duration_seconds"); err != nil || n != 1 {
		t.Errorf("latency histogram count = %d, %v", n, err)
	}
}

func parsePipeline(t *testing.T, yml string) *pipeline.Config {
	t.Helper()
	cfg, err := pipeline.ParseYAML([]byte(yml))
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestRecommend_CustomPipelineWithoutTopN(t *testing.T) {
	r := newReady(t,
		WithNRecommendations(2),
		WithPipelineConfig(parsePipeline(t, `
pipeline:
  name: no-topn
  nodes:
    - type: rank.cosine
    - type: postprocess.explain
`)),
	)
	recs, err := r.Recommend(context.Background(), exactProfile)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("len(recs) = %d, want 2", len(recs))
	}
	if recs[0].ID != 1 || recs[0].Explanation == "" {
		t.Errorf("top = %+v, want service 1 with explanation", recs[0])
	}
}

func TestRecommend_StoreBlacklistNotCached(t *testing.T) {
	const key = "blacklist:services"
	ctx := context.Background()
	s := store.NewMemoryStore()
	mon := &countingMonitor{}
	r := newReady(t,
		WithStore(s, time.Minute),
		WithMonitor(mon),
		WithPipelineConfig(parsePipeline(t, `
pipeline:
  nodes:
    - type: rank.cosine
    - type: filter
      config:
        filters:
          - type: blacklist
            key: `+key+`
    - type: rerank.topn
    - type: postprocess.explain
`)),
	)

	before, err := r.Recommend(ctx, exactProfile)
	if err != nil {
		t.Fatal(err)
	}
	if before[0].ID != 1 {
		t.Fatalf("top before blacklisting = %d, want 1", before[0].ID)
	}

	if err := filter.NewStoreAdapter(s).PutBlacklist(ctx, key, []int64{1}); err != nil {
		t.Fatal(err)
	}
	after, err := r.Recommend(ctx, exactProfile)
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range after {
		if rec.ID == 1 {
			t.Fatalf("blacklisted service 1 still returned: %+v", after)
		}
	}
	if mon.hits != 0 || mon.misses != 0 {
		t.Errorf("cache hits/misses = %d/%d, want cache bypassed", mon.hits, mon.misses)
	}
	if s.Len() != 1 {
		t.Errorf("store entries = %d, want only the blacklist", s.Len())
	}
}

func TestRecommend_Params(t *testing.T) {
	r := newReady(t,
		WithParams(map[string]any{"excluded_price": "High"}),
		WithFilterExpr(`service.Price_Category != params.excluded_price`),
	)
	recs, err := r.Recommend(context.Background(), exactProfile)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != len(services)-1 {
		t.Fatalf("len(recs) = %d, want %d", len(recs), len(services)-1)
	}
	for _, rec := range recs {
		if rec.PriceCategory == "High" {
			t.Errorf("service %d with excluded price returned", rec.ID)
		}
	}
}

func TestRecommend_DegradedProfileCached(t *testing.T) {
	mon := &countingMonitor{}
	r := newReady(t, WithStore(store.NewMemoryStore(), time.Minute), WithMonitor(mon))
	profile := core.Profile{catalog.ColLocationArea: "Antarctica"}

	for i := 0; i < 2; i++ {
		if _, err := r.Recommend(context.Background(), profile); err != nil {
			t.Fatal(err)
		}
	}
	if mon.hits != 1 {
		t.Errorf("cache hits = %d, want 1", mon.hits)
	}
	if want := []string{StatusDegraded, StatusDegraded}; !reflect.DeepEqual(mon.statuses, want) {
		t.Errorf("statuses = %v, want %v", mon.statuses, want)
	}
	if want := []string{catalog.ColLocationArea, catalog.ColLocationArea}; !reflect.DeepEqual(mon.unknown, want) {
		t.Errorf("unknown = %v, want %v", mon.unknown, want)
	}
}
