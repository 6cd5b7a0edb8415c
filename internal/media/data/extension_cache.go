package data

import (
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/lk2023060901/media-path/internal/pkg/metrics"
)

// LRUExtensionCache 进程内按 bundle 缓存扩展名列表，带过期时间
type LRUExtensionCache struct {
	lru *expirable.LRU[string, []string]
}

func NewLRUExtensionCache(size int, ttl time.Duration) *LRUExtensionCache {
	if size <= 0 {
		size = 256
	}
	return &LRUExtensionCache{lru: expirable.NewLRU[string, []string](size, nil, ttl)}
}

func (c *LRUExtensionCache) Get(bundle string) ([]string, bool) {
	exts, ok := c.lru.Get(bundle)
	metrics.ObserveCache("extensions", ok)
	if !ok {
		return nil, false
	}
	return slices.Clone(exts), true
}

func (c *LRUExtensionCache) Set(bundle string, extensions []string) {
	c.lru.Add(bundle, slices.Clone(extensions))
}

func (c *LRUExtensionCache) Invalidate(bundle string) {
	c.lru.Remove(bundle)
}
