package feature

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/catalog"
	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
)

// SentinelCode 是拟合时未见过的取值（以及画像中缺失的属性）的保留编码。
// 已知取值从 1 开始编码，因此全部未知的画像编码为零向量，与任何服务的相似度都为 0。
const SentinelCode = 0

// Vector 是单条记录/画像的特征向量，维度顺序由拟合时的 Schema 决定。
type Vector []float64

// Matrix 是按目录行顺序排列的特征矩阵。
type Matrix []Vector

// Vocabulary 是单个类别属性的取值表：取值 -> 编码。
// 取值按规范化后（去空白、小写）的字典序排序后依次编码为 1..n，保证多次拟合结果一致。
type Vocabulary struct {
	Attribute string
	Values    []string // 第 i 个取值的编码为 i+1，保留首次出现时的原始写法
	codes     map[string]int
}

// Code 返回取值的编码；未见过的取值返回 SentinelCode, false。
func (v *Vocabulary) Code(value string) (int, bool) {
	code, ok := v.codes[normalizeValue(value)]
	if !ok {
		return SentinelCode, false
	}
	return code, true
}

// Size 返回已知取值个数（不含保留编码）。
func (v *Vocabulary) Size() int {
	return len(v.Values)
}

// LabelEncoder Label 编码（标签编码）的拟合结果：每个类别属性一张取值表。
//
// 由 FitLabelEncoder 一次性构建，之后只读，可被并发使用。
type LabelEncoder struct {
	schema catalog.Schema
	vocabs []*Vocabulary
}

// FitLabelEncoder 从目录拟合编码器。目录为空或 Schema 没有类别列时返回 EMPTY_INPUT。
// 不修改目录。
func FitLabelEncoder(c *catalog.Catalog, schema catalog.Schema) (*LabelEncoder, error) {
	if err := schema.Validate(); err != nil {
		if core.IsEmptyInput(err) {
			return nil, core.NewEmptyInput(core.ModuleFeature, "fit", "no categorical columns to encode")
		}
		return nil, err
	}
	if c.Len() == 0 {
		return nil, core.NewEmptyInput(core.ModuleFeature, "fit", "catalog has zero rows")
	}

	enc := &LabelEncoder{
		schema: schema,
		vocabs: make([]*Vocabulary, 0, len(schema.Features)),
	}
	for _, attr := range schema.Features {
		column, err := c.Column(attr)
		if err != nil {
			return nil, err
		}
		enc.vocabs = append(enc.vocabs, buildVocabulary(attr, column))
	}
	return enc, nil
}

func buildVocabulary(attr string, column []string) *Vocabulary {
	display := make(map[string]string)
	for _, raw := range column {
		key := normalizeValue(raw)
		if _, ok := display[key]; !ok {
			display[key] = strings.TrimSpace(raw)
		}
	}
	keys := make([]string, 0, len(display))
	for k := range display {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	v := &Vocabulary{
		Attribute: attr,
		Values:    make([]string, len(keys)),
		codes:     make(map[string]int, len(keys)),
	}
	for i, k := range keys {
		v.Values[i] = display[k]
		v.codes[k] = i + 1
	}
	return v
}

func normalizeValue(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Attributes 返回特征维度对应的属性名（顺序即维度顺序）。
func (e *LabelEncoder) Attributes() []string {
	out := make([]string, len(e.vocabs))
	for i, v := range e.vocabs {
		out[i] = v.Attribute
	}
	return out
}

// Width 返回特征向量维度。
func (e *LabelEncoder) Width() int {
	return len(e.vocabs)
}

// Schema 返回拟合时使用的 Schema。
func (e *LabelEncoder) Schema() catalog.Schema {
	return e.schema
}

// Vocabulary 返回属性的取值表。
func (e *LabelEncoder) Vocabulary(attr string) (*Vocabulary, bool) {
	for _, v := range e.vocabs {
		if v.Attribute == attr {
			return v, true
		}
	}
	return nil, false
}

// EncodeWithKey 编码单个属性值；未知属性或未见过的取值返回 SentinelCode, false。
func (e *LabelEncoder) EncodeWithKey(attr, value string) (float64, bool) {
	v, ok := e.Vocabulary(attr)
	if !ok {
		return SentinelCode, false
	}
	code, known := v.Code(value)
	return float64(code), known
}

// EncodeService 编码一条服务记录。
func (e *LabelEncoder) EncodeService(s catalog.Service) Vector {
	out := make(Vector, len(e.vocabs))
	for i, v := range e.vocabs {
		val, _ := s.Attr(v.Attribute)
		code, _ := v.Code(val)
		out[i] = float64(code)
	}
	return out
}

// EncodeCatalog 按行顺序编码整个目录。
func (e *LabelEncoder) EncodeCatalog(c *catalog.Catalog) Matrix {
	out := make(Matrix, c.Len())
	for i := 0; i < c.Len(); i++ {
		out[i] = e.EncodeService(c.Row(i))
	}
	return out
}

// EncodeProfile 编码用户画像。画像先经 Schema 规范化（别名、空白）。
// 缺失属性与未见过的取值都编码为 SentinelCode；unknown 只列出“给了值但未见过”的属性。
func (e *LabelEncoder) EncodeProfile(p core.Profile) (vec Vector, unknown []string) {
	norm := e.schema.NormalizeProfile(p)
	vec = make(Vector, len(e.vocabs))
	for i, v := range e.vocabs {
		val, ok := norm[v.Attribute]
		if !ok {
			vec[i] = SentinelCode
			continue
		}
		code, known := v.Code(val)
		if !known {
			unknown = append(unknown, v.Attribute)
		}
		vec[i] = float64(code)
	}
	return vec, unknown
}

// Encoder 提供 fit / transform 契约：Fit 只能成功一次，之后所有 Transform 复用同一份取值表，
// 保证不同请求之间的分数可比较。
type Encoder struct {
	schema catalog.Schema
	fitted atomic.Pointer[LabelEncoder]
}

// NewEncoder 创建编码器。
func NewEncoder(schema catalog.Schema) *Encoder {
	return &Encoder{schema: schema}
}

// Fit 从目录学习取值表。重复 Fit 返回 USAGE_ERROR。
func (e *Encoder) Fit(c *catalog.Catalog) error {
	if e.fitted.Load() != nil {
		return core.NewUsageError(core.ModuleFeature, "fit", "encoder already fitted")
	}
	enc, err := FitLabelEncoder(c, e.schema)
	if err != nil {
		return err
	}
	if !e.fitted.CompareAndSwap(nil, enc) {
		return core.NewUsageError(core.ModuleFeature, "fit", "encoder already fitted")
	}
	return nil
}

// Fitted 返回拟合结果，未拟合时返回 USAGE_ERROR。
func (e *Encoder) Fitted() (*LabelEncoder, error) {
	return e.fittedFor("fitted")
}

func (e *Encoder) fittedFor(op string) (*LabelEncoder, error) {
	enc := e.fitted.Load()
	if enc == nil {
		return nil, core.NewUsageError(core.ModuleFeature, op, "encoder is not fitted, call Fit first")
	}
	return enc, nil
}

// Transform 用已拟合的取值表编码整个目录。
func (e *Encoder) Transform(c *catalog.Catalog) (Matrix, error) {
	enc, err := e.fittedFor("transform")
	if err != nil {
		return nil, err
	}
	return enc.EncodeCatalog(c), nil
}

// TransformRow 用已拟合的取值表编码单个画像，未见过的取值不报错。
func (e *Encoder) TransformRow(p core.Profile) (Vector, error) {
	enc, err := e.fittedFor("transform")
	if err != nil {
		return nil, err
	}
	vec, _ := enc.EncodeProfile(p)
	return vec, nil
}

// FitTransform 等价于 Fit 后对同一目录 Transform。
func (e *Encoder) FitTransform(c *catalog.Catalog) (Matrix, error) {
	if err := e.Fit(c); err != nil {
		return nil, fmt.Errorf("fit_transform: %w", err)
	}
	return e.Transform(c)
}
