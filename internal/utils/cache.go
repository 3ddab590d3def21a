package utils

import (
	"time"

	"github.com/sirupsen/logrus"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheItem 包装缓存数据和过期时间
type CacheItem struct {
	Data      interface{}
	ExpiresAt time.Time
}

// LocalCache 进程内 LRU 缓存，带 TTL
type LocalCache struct {
	lruCache *lru.Cache[string, CacheItem]
}

var cacheInstance *LocalCache

// NewLocalCache creates a cache holding at most size entries.
func NewLocalCache(size int) *LocalCache {
	l, err := lru.New[string, CacheItem](size)
	if err != nil {
		logrus.Fatalf("Failed to create LRU cache: %v", err)
	}
	return &LocalCache{lruCache: l}
}

// GetCache 获取单例缓存实例
func GetCache() *LocalCache {
	if cacheInstance == nil {
		cacheInstance = NewLocalCache(500)
	}
	return cacheInstance
}

// Set 设置缓存，TTL 为过期时间
func (c *LocalCache) Set(key string, data interface{}, ttl time.Duration) {
	c.lruCache.Add(key, CacheItem{
		Data:      data,
		ExpiresAt: time.Now().Add(ttl),
	})
}

// Get 获取缓存，若不存在或已过期则返回 nil
func (c *LocalCache) Get(key string) interface{} {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil
	}

	// 检查过期
	if time.Now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return nil
	}

	return val.Data
}

// Lookup 按类型读取缓存，类型不符视为未命中
func Lookup[T any](c *LocalCache, key string) (T, bool) {
	v, ok := c.Get(key).(T)
	return v, ok
}

// Fetch returns the cached value for key, or runs load and caches its result
// for ttl. Errors from load are returned as is and nothing is cached.
func Fetch[T any](c *LocalCache, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if v, ok := Lookup[T](c, key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.Set(key, v, ttl)
	return v, nil
}

// Delete 删除指定缓存
func (c *LocalCache) Delete(key string) {
	c.lruCache.Remove(key)
}
