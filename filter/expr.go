package filter

import (
	"context"
	"fmt"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/catalog"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/pkg/dsl"
)

// ExprFilter 用 CEL 表达式描述保留条件：表达式为 false 的服务被过滤。
//
//	f, err := filter.NewExprFilter(`service.Price_Category != "High"`, cat)
type ExprFilter struct {
	prg     *dsl.Program
	catalog *catalog.Catalog
}

// NewExprFilter 编译表达式。catalog 用于把 item 关联回服务记录。
func NewExprFilter(expr string, c *catalog.Catalog) (*ExprFilter, error) {
	if c == nil {
		return nil, core.NewUsageError(core.ModuleFilter, "expr_filter", "catalog is required")
	}
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, core.NewInvalidInput(core.ModuleFilter, "expr_filter", err.Error())
	}
	return &ExprFilter{prg: prg, catalog: c}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

// Expr 返回表达式文本。
func (f *ExprFilter) Expr() string { return f.prg.Expr() }

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	svc, ok := f.catalog.ByID(item.ID)
	if !ok {
		return false, fmt.Errorf("service %d not in catalog", item.ID)
	}

	vars := dsl.Vars{
		Service: svc.Fields(),
		Score:   item.Score,
		Labels:  make(map[string]string, len(item.Labels)),
	}
	for k, v := range item.Labels {
		vars.Labels[k] = v.Value
	}
	if rctx != nil {
		vars.Profile = rctx.Profile
		vars.Params = rctx.Params
	}

	keep, err := f.prg.Eval(vars)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
