package rank

import "math"

// Norm 返回向量的 L2 范数。
func Norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Cosine 计算两个等长向量的余弦相似度，结果截断到 [0, 1]。
// 任一向量范数为 0 时返回 0。调用方负责保证长度一致。
func Cosine(a, b []float64) float64 {
	return cosineWithNorms(a, b, Norm(a), Norm(b))
}

func cosineWithNorms(a, b []float64, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return clamp01(dot / (normA * normB))
}

func clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x) || x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
