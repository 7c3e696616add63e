package core

import "github.com/karthikbhavasarsr/ML-Service-Recommender/pkg/utils"

// RecommendContext 承载单次请求的用户画像、编码后的查询向量等，贯穿整个 Pipeline 透传。
// 请求结束即丢弃，不跨请求共享。
type RecommendContext struct {
	RequestID string

	// Profile 是调用方传入的原始用户画像（未编码）
	Profile Profile

	// Query 是 Profile 经已拟合编码器转换后的特征向量
	Query []float64

	// Labels 是请求级标签，例如 degraded=true（画像含未知取值）
	Labels map[string]utils.Label

	// Params 请求级参数，供过滤表达式等读取
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
