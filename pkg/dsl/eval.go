package dsl

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("service", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("score", cel.DoubleType),
		cel.Variable("profile", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("label", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("params", cel.MapType(cel.StringType, cel.DynType)),
	)
}

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译后的过滤表达式，使用 CEL (Common Expression Language) 实现。
// 编译一次，可被多个 goroutine 并发 Eval。
//
// 可用变量：
//   - service：服务记录的全部属性，例如 service.Price_Category == "High"
//   - score：当前相似度分数，例如 score >= 0.5
//   - profile：请求画像（已规范化为列名），例如 profile.Location_Area == service.Location_Area
//   - label：item 上的 label 取值，例如 label.rank_model == "cosine"
//   - params：请求级参数
//
// 示例：
//   - `service.Price_Category != "High"`
//   - `score > 0.3 && service.Language_Support in ["English", "Both"]`
//   - `!("Location_Area" in profile) || service.Location_Area == profile.Location_Area`
type Program struct {
	expr string
	prg  cel.Program
}

// Vars 是一次求值的输入。
type Vars struct {
	Service map[string]any
	Score   float64
	Profile map[string]string
	Labels  map[string]string
	Params  map[string]any
}

// Compile 编译表达式，语法错误或结果类型不是 bool 时返回错误。
func Compile(expr string) (*Program, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty expression")
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	switch ast.OutputType().Kind() {
	case cel.BoolType.Kind(), cel.DynType.Kind():
	default:
		return nil, fmt.Errorf("expression must return bool, got %s", ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// Expr 返回原始表达式。
func (p *Program) Expr() string { return p.expr }

// Eval 执行表达式，返回布尔结果。
// 访问不存在的 key 会返回错误，存在性检查请用 "key" in service 这种写法。
func (p *Program) Eval(v Vars) (bool, error) {
	out, _, err := p.prg.Eval(map[string]any{
		"service": nonNilAny(v.Service),
		"score":   v.Score,
		"profile": nonNilString(v.Profile),
		"label":   nonNilString(v.Labels),
		"params":  nonNilAny(v.Params),
	})
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

func nonNilAny(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func nonNilString(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
