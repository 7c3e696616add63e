// Package store 提供 core.Store 的实现：进程内的 MemoryStore 与基于 go-redis 的 RedisStore。
//
// 注意：此包只包含实现，接口定义在 core 包。
//
// 示例：
//
//	var s core.Store = store.NewMemoryStore()
//	s, err := store.New(store.Config{Driver: "redis", RedisAddr: "localhost:6379"})
package store

import (
	"fmt"

	"github.com/karthikbhavasarsr/ML-Service-Recommender/core"
)

// 存储驱动
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverNone   = "none"
)

// Config 描述要创建的存储后端。
type Config struct {
	Driver    string
	RedisAddr string
	RedisDB   int
}

// New 按驱动创建存储。DriverNone 或空驱动返回 (nil, nil)，表示不启用缓存。
func New(cfg Config) (core.Store, error) {
	switch cfg.Driver {
	case "", DriverNone:
		return nil, nil
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverRedis:
		rs, err := NewRedisStore(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return rs, nil
	default:
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotSupported,
			fmt.Sprintf("unknown store driver %q", cfg.Driver))
	}
}
