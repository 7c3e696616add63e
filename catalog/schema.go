package catalog

import (
	"fmt"
	"strings"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
)

// 目录列名。
const (
	ColServiceID          = "Service_ID"
	ColServiceName        = "Service_Name"
	ColDescription        = "Description"
	ColTargetBusinessType = "Target_Business_Type"
	ColPriceCategory      = "Price_Category"
	ColLocationArea       = "Location_Area"
	ColLanguageSupport    = "Language_Support"
	ColMatchQuality       = "Match_Quality"
)

// UnknownValue 是清洗阶段对空类别单元格的填充值。
const UnknownValue = "Unknown"

// Schema 显式声明特征空间：参与编码的类别属性及其固定顺序。
//
// 不再依赖表格列的隐式顺序/类型来推断哪些列是特征。
type Schema struct {
	// Features 参与编码的类别属性（顺序即特征向量的维度顺序）
	Features []string

	// Explained 参与解释的属性（顺序即解释子句的顺序），可包含不参与编码的属性
	Explained []string

	// Aliases 画像中允许使用的简写属性名 -> 规范属性名
	Aliases map[string]string
}

// DefaultSchema 返回服务目录的默认 Schema。
// Match_Quality 是目录侧的评价字段，不进入特征空间，只参与解释。
func DefaultSchema() Schema {
	return Schema{
		Features: []string{
			ColTargetBusinessType,
			ColPriceCategory,
			ColLocationArea,
			ColLanguageSupport,
		},
		Explained: []string{
			ColTargetBusinessType,
			ColPriceCategory,
			ColLocationArea,
			ColLanguageSupport,
			ColMatchQuality,
		},
		Aliases: map[string]string{
			"business_type":  ColTargetBusinessType,
			"price_category": ColPriceCategory,
			"price":          ColPriceCategory,
			"location":       ColLocationArea,
			"location_area":  ColLocationArea,
			"language":       ColLanguageSupport,
			"match_quality":  ColMatchQuality,
		},
	}
}

// Validate 检查 Schema 至少声明一个类别属性，且属性名均为已知的类别列、无重复。
func (s Schema) Validate() error {
	if len(s.Features) == 0 {
		return core.NewEmptyInput(core.ModuleCatalog, "schema", "no categorical feature columns declared")
	}
	seen := make(map[string]bool, len(s.Features))
	for _, attr := range s.Features {
		if !IsCategorical(attr) {
			return core.NewInvalidInput(core.ModuleCatalog, "schema", fmt.Sprintf("column %q is not categorical", attr))
		}
		if seen[attr] {
			return core.NewInvalidInput(core.ModuleCatalog, "schema", fmt.Sprintf("column %q declared twice", attr))
		}
		seen[attr] = true
	}
	for _, attr := range s.Explained {
		if !IsCategorical(attr) {
			return core.NewInvalidInput(core.ModuleCatalog, "schema", fmt.Sprintf("explained column %q is not categorical", attr))
		}
	}
	return nil
}

// Resolve 把画像中的属性名解析为规范列名；未知属性名原样返回，ok=false。
func (s Schema) Resolve(key string) (string, bool) {
	k := strings.TrimSpace(key)
	if IsCategorical(k) {
		return k, true
	}
	if canonical, ok := s.Aliases[strings.ToLower(k)]; ok {
		return canonical, true
	}
	for _, col := range categoricalColumns {
		if strings.EqualFold(col, k) {
			return col, true
		}
	}
	return k, false
}

// NormalizeProfile 返回规范化后的画像副本：属性名解析为列名，取值去除首尾空白，
// 无法识别的属性与空值被丢弃。同一列同时以规范名和别名出现时，规范名优先。
func (s Schema) NormalizeProfile(p core.Profile) core.Profile {
	out := make(core.Profile, len(p))
	for _, key := range p.Keys() {
		col, ok := s.Resolve(key)
		if !ok {
			continue
		}
		val := strings.TrimSpace(p[key])
		if val == "" {
			continue
		}
		if _, exists := out[col]; exists && key != col {
			continue
		}
		out[col] = val
	}
	return out
}

var categoricalColumns = []string{
	ColTargetBusinessType,
	ColPriceCategory,
	ColLocationArea,
	ColLanguageSupport,
	ColMatchQuality,
}

// IsCategorical 判断列是否为有界类别列（ID、名称、描述不是）。
func IsCategorical(col string) bool {
	for _, c := range categoricalColumns {
		if c == col {
			return true
		}
	}
	return false
}
