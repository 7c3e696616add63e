package feature

// FeatureMetadata 描述已拟合的特征空间，用于日志与 CLI 的 -describe 输出。
type FeatureMetadata struct {
	// FeatureColumns 特征列名列表（按顺序）
	FeatureColumns []string `json:"feature_columns"`
	// FeatureCount 特征数量
	FeatureCount int `json:"feature_count"`
	// SentinelCode 未知取值的保留编码
	SentinelCode int `json:"sentinel_code"`
	// Vocabularies 每列的取值表，第 i 个取值编码为 i+1
	Vocabularies map[string][]string `json:"vocabularies"`
}

// Metadata 导出拟合结果的描述信息。
func (e *LabelEncoder) Metadata() FeatureMetadata {
	meta := FeatureMetadata{
		FeatureColumns: e.Attributes(),
		FeatureCount:   e.Width(),
		SentinelCode:   SentinelCode,
		Vocabularies:   make(map[string][]string, len(e.vocabs)),
	}
	for _, v := range e.vocabs {
		values := make([]string, len(v.Values))
		copy(values, v.Values)
		meta.Vocabularies[v.Attribute] = values
	}
	return meta
}

// VocabularySizes 返回每列已知取值个数。
func (m FeatureMetadata) VocabularySizes() map[string]int {
	out := make(map[string]int, len(m.Vocabularies))
	for col, values := range m.Vocabularies {
		out[col] = len(values)
	}
	return out
}
