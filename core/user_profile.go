package core

import (
	"hash/fnv"
	"sort"
	"strconv"
)

// Profile 是用户画像：属性名 -> 取值。
//
// 不要求覆盖目录的全部属性；缺失属性在编码时视为未知，在解释时跳过。
// 画像只在单次请求内存在。
type Profile map[string]string

// Get 获取属性值，不存在时 ok=false。
func (p Profile) Get(attr string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p[attr]
	return v, ok
}

// Clone 返回画像副本，修改副本不影响原画像。
func (p Profile) Clone() Profile {
	if p == nil {
		return nil
	}
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Keys 返回排序后的属性名。
func (p Profile) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fingerprint 返回画像的稳定哈希（与 map 遍历顺序无关），用作缓存 key。
func (p Profile) Fingerprint() string {
	h := fnv.New64a()
	for _, k := range p.Keys() {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(p[k]))
		h.Write([]byte{0})
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
