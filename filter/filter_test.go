package filter

import (
	"context"
	"testing"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/catalog"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/store"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Service{
		{ID: 1, Name: "SEO", PriceCategory: "High", LocationArea: "Delhi"},
		{ID: 2, Name: "Bookkeeping", PriceCategory: "Low", LocationArea: "Mumbai"},
		{ID: 3, Name: "Web Design", PriceCategory: "Medium", LocationArea: "Delhi"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func items(scores ...float64) []*core.Item {
	out := make([]*core.Item, len(scores))
	for i, s := range scores {
		it := core.NewItem(int64(i+1), i)
		it.Score = s
		out[i] = it
	}
	return out
}

func ids(items []*core.Item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestExprFilter(t *testing.T) {
	c := testCatalog(t)
	rctx := &core.RecommendContext{Profile: core.Profile{catalog.ColLocationArea: "Delhi"}}

	tests := []struct {
		expr string
		want []int64
	}{
		{`service.Price_Category != "High"`, []int64{2, 3}},
		{`score >= 0.5`, []int64{1, 2}},
		{`service.Location_Area == profile.Location_Area`, []int64{1, 3}},
		{`true`, []int64{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := NewExprFilter(tt.expr, c)
			if err != nil {
				t.Fatalf("NewExprFilter() error = %v", err)
			}
			n := &FilterNode{Filters: []Filter{f}}
			got, err := n.Process(context.Background(), rctx, items(0.9, 0.5, 0.1))
			if err != nil {
				t.Fatal(err)
			}
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("kept %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestExprFilter_Invalid(t *testing.T) {
	if _, err := NewExprFilter("service.Price_Category ==", testCatalog(t)); !core.IsInvalidInput(err) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
	if _, err := NewExprFilter("true", nil); !core.IsUsageError(err) {
		t.Errorf("error = %v, want USAGE_ERROR", err)
	}
}

func TestFilterNode_EvalErrorKeepsItem(t *testing.T) {
	f, err := NewExprFilter(`profile.Price_Category == "High"`, testCatalog(t))
	if err != nil {
		t.Fatal(err)
	}
	rctx := &core.RecommendContext{}
	n := &FilterNode{Filters: []Filter{f}}
	got, err := n.Process(context.Background(), rctx, items(0.9, 0.5))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("kept %d items, want 2", len(got))
	}
	if _, ok := rctx.GetLabel("filter_error"); !ok {
		t.Error("filter_error label not recorded")
	}
}

func TestBlacklistFilter(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	defer s.Close()
	adapter := NewStoreAdapter(s)
	if err := adapter.PutBlacklist(ctx, "blacklist", []int64{3}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		f    *BlacklistFilter
		want []int64
	}{
		{"ids only", NewBlacklistFilter([]int64{1}, nil, ""), []int64{2, 3}},
		{"ids and store", NewBlacklistFilter([]int64{1}, adapter, "blacklist"), []int64{2}},
		{"missing store key", NewBlacklistFilter(nil, adapter, "absent"), []int64{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &FilterNode{Filters: []Filter{tt.f}}
			got, err := n.Process(ctx, &core.RecommendContext{}, items(0.9, 0.5, 0.1))
			if err != nil {
				t.Fatal(err)
			}
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("kept %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestFilterNode_NoFilters(t *testing.T) {
	in := items(0.3, 0.2)
	got, err := (&FilterNode{}).Process(context.Background(), nil, in)
	if err != nil || len(got) != 2 {
		t.Errorf("Process() = %v, %v", ids(got), err)
	}
}
