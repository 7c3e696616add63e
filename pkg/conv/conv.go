// Package conv 提供类型转换、map/slice 转换等泛型工具，用于解析 YAML/JSON 得到的弱类型配置。
package conv

import "strconv"

// ToFloat64 将 any 转为 float64。
// 支持 float64、float32、int、int64、int32。
func ToFloat64(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	default:
		return 0, false
	}
}

// ToInt64 将 any 转为 int64，数字字符串也会被解析。
func ToInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case string:
		n, err := strconv.ParseInt(val, 10, 64)
		return n, err == nil
	default:
		f, ok := ToFloat64(v)
		return int64(f), ok
	}
}

// ConvertSlice 将 []T 按 convert 转为 []U，convert 返回 false 的元素被跳过。
func ConvertSlice[T, U any](s []T, convert func(T) (U, bool)) []U {
	if s == nil {
		return nil
	}
	out := make([]U, 0, len(s))
	for _, v := range s {
		if u, ok := convert(v); ok {
			out = append(out, u)
		}
	}
	return out
}

// SliceAnyToInt64 将 []any（即 []interface{}）转为 []int64，无法转换的元素被跳过。
func SliceAnyToInt64(v any) []int64 {
	switch raw := v.(type) {
	case []int64:
		return raw
	case []any:
		return ConvertSlice(raw, ToInt64)
	default:
		return nil
	}
}

// ConfigGet 从 map[string]any（如 YAML/JSON 解析结果）按 key 取 T，取不到或类型不符时返回 defaultVal。
func ConfigGet[T any](m map[string]any, key string, defaultVal T) T {
	if m == nil {
		return defaultVal
	}
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	t, ok := v.(T)
	if !ok {
		return defaultVal
	}
	return t
}

// ConfigGetInt64 从 config 取 int64。YAML/JSON 常得到 int 或 float64，此处兼容并统一为 int64。
func ConfigGetInt64(m map[string]any, key string, defaultVal int64) int64 {
	if m == nil {
		return defaultVal
	}
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	if n, ok := ToInt64(v); ok {
		return n
	}
	return defaultVal
}
