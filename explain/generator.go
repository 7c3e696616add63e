// Package explain 把画像与服务记录之间相同的属性转换成一句可读的推荐理由。
package explain

import (
	"fmt"
	"strings"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/catalog"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
)

// DefaultFallback 是没有任何属性匹配时的兜底理由。
const DefaultFallback = "Recommended as a general match based on overall similarity to your profile."

// clauseTemplates 每个属性的子句模板，%s 为服务上的取值。
var clauseTemplates = map[string]string{
	catalog.ColTargetBusinessType: "it is designed for your business type (%s)",
	catalog.ColPriceCategory:      "it fits your price range (%s)",
	catalog.ColLocationArea:       "it is available in your location (%s)",
	catalog.ColLanguageSupport:    "it supports your language preference (%s)",
	catalog.ColMatchQuality:       "it has the %s match quality you asked for",
}

// Match 是一个命中的属性。
type Match struct {
	Attribute string
	Value     string
}

// Generator 生成推荐理由。无内部状态，可并发使用。
type Generator struct {
	schema   catalog.Schema
	fallback string
}

// NewGenerator 创建解释器。子句顺序取 schema.Explained 的顺序。
func NewGenerator(schema catalog.Schema) *Generator {
	return &Generator{schema: schema, fallback: DefaultFallback}
}

func (g *Generator) Schema() catalog.Schema { return g.schema }

// WithFallback 设置兜底理由，空串忽略。
func (g *Generator) WithFallback(s string) *Generator {
	if s != "" {
		g.fallback = s
	}
	return g
}

// Matches 返回画像中与服务取值相同的属性（忽略大小写与首尾空白），按 Schema 顺序。
// 画像中缺失或不相等的属性不出现在结果里。
func (g *Generator) Matches(svc catalog.Service, profile core.Profile) []Match {
	norm := g.schema.NormalizeProfile(profile)
	var out []Match
	for _, attr := range g.schema.Explained {
		want, ok := norm[attr]
		if !ok {
			continue
		}
		have, ok := svc.Attr(attr)
		if !ok || !strings.EqualFold(strings.TrimSpace(have), want) {
			continue
		}
		out = append(out, Match{Attribute: attr, Value: strings.TrimSpace(have)})
	}
	return out
}

// Explain 生成一句推荐理由；没有任何匹配时返回兜底理由，不会返回空串。
func (g *Generator) Explain(svc catalog.Service, profile core.Profile) string {
	matches := g.Matches(svc, profile)
	clauses := make([]string, 0, len(matches))
	for _, m := range matches {
		tpl, ok := clauseTemplates[m.Attribute]
		if !ok {
			tpl = strings.ReplaceAll(strings.ToLower(m.Attribute), "_", " ") + " matches (%s)"
		}
		clauses = append(clauses, fmt.Sprintf(tpl, m.Value))
	}
	if len(clauses) == 0 {
		return g.fallback
	}
	return "Recommended because " + joinClauses(clauses) + "."
}

func joinClauses(clauses []string) string {
	switch len(clauses) {
	case 1:
		return clauses[0]
	case 2:
		return clauses[0] + " and " + clauses[1]
	default:
		return strings.Join(clauses[:len(clauses)-1], ", ") + " and " + clauses[len(clauses)-1]
	}
}
