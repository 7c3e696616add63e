package filter

import (
	"context"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉黑名单中的服务。
type BlacklistFilter struct {
	// ids 是内存中的黑名单服务 ID
	ids map[int64]struct{}

	// Store 用于从存储中读取黑名单（可选）
	Store BlacklistStore

	// Key 是 Store 中的黑名单 key（可选）
	Key string
}

// BlacklistStore 是黑名单存储接口。
type BlacklistStore interface {
	// GetBlacklist 获取黑名单服务 ID 列表
	GetBlacklist(ctx context.Context, key string) ([]int64, error)
}

// NewBlacklistFilter 创建一个黑名单过滤器。storeAdapter 与 key 可为空。
func NewBlacklistFilter(serviceIDs []int64, storeAdapter *StoreAdapter, key string) *BlacklistFilter {
	var store BlacklistStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	ids := make(map[int64]struct{}, len(serviceIDs))
	for _, id := range serviceIDs {
		ids[id] = struct{}{}
	}
	return &BlacklistFilter{
		ids:   ids,
		Store: store,
		Key:   key,
	}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	if _, ok := f.ids[item.ID]; ok {
		return true, nil
	}

	// 从 Store 检查，key 不存在视为空黑名单
	if f.Store != nil && f.Key != "" {
		blacklist, err := f.Store.GetBlacklist(ctx, f.Key)
		if err != nil {
			if core.IsStoreNotFound(err) {
				return false, nil
			}
			return false, err
		}
		for _, id := range blacklist {
			if item.ID == id {
				return true, nil
			}
		}
	}

	return false, nil
}
