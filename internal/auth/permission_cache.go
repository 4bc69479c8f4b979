package auth

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// PermissionCache 权限缓存
type PermissionCache struct {
	cache *sync.Map
	ttl   time.Duration
}

// cacheEntry 缓存条目
type cacheEntry struct {
	value     bool
	expiresAt time.Time
}

// NewPermissionCache 创建权限缓存
func NewPermissionCache(ttl time.Duration) *PermissionCache {
	return &PermissionCache{
		cache: &sync.Map{},
		ttl:   ttl,
	}
}

// Get 获取缓存
func (c *PermissionCache) Get(key string) (bool, bool) {
	val, found := c.cache.Load(key)
	if !found {
		return false, false
	}

	entry := val.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.cache.Delete(key)
		return false, false
	}

	return entry.value, true
}

// Set 设置缓存
func (c *PermissionCache) Set(key string, value bool) {
	c.cache.Store(key, &cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	})
}

// Invalidate 删除对象上的所有缓存（关系变化会影响派生关系 viewer）
func (c *PermissionCache) Invalidate(objectType, objectID string) {
	suffix := fmt.Sprintf("|%s:%s", objectType, objectID)
	c.cache.Range(func(key, value interface{}) bool {
		if k, ok := key.(string); ok && len(k) >= len(suffix) && k[len(k)-len(suffix):] == suffix {
			c.cache.Delete(key)
		}
		return true
	})
}

// Clear 清空缓存
func (c *PermissionCache) Clear() {
	c.cache.Range(func(key, value interface{}) bool {
		c.cache.Delete(key)
		return true
	})
}

func cacheKey(userID, relation, objectType, objectID string) string {
	return fmt.Sprintf("user:%s|%s|%s:%s", userID, relation, objectType, objectID)
}

// CachedRelationStore 带缓存的关系存储
type CachedRelationStore struct {
	store RelationStore
	cache *PermissionCache
}

// NewCachedRelationStore 创建带缓存的关系存储
func NewCachedRelationStore(store RelationStore, cache *PermissionCache) *CachedRelationStore {
	return &CachedRelationStore{
		store: store,
		cache: cache,
	}
}

// CheckPermission 检查权限（带缓存）
func (c *CachedRelationStore) CheckPermission(ctx context.Context, userID, relation, objectType, objectID string) (bool, error) {
	key := cacheKey(userID, relation, objectType, objectID)
	if value, found := c.cache.Get(key); found {
		return value, nil
	}

	allowed, err := c.store.CheckPermission(ctx, userID, relation, objectType, objectID)
	if err != nil {
		return false, err
	}

	c.cache.Set(key, allowed)
	return allowed, nil
}

// SetRelation 设置权限关系并清除对象缓存
func (c *CachedRelationStore) SetRelation(ctx context.Context, userID, relation, objectType, objectID string) error {
	if err := c.store.SetRelation(ctx, userID, relation, objectType, objectID); err != nil {
		return err
	}
	c.cache.Invalidate(objectType, objectID)
	return nil
}

// DeleteRelation 删除权限关系并清除对象缓存
func (c *CachedRelationStore) DeleteRelation(ctx context.Context, userID, relation, objectType, objectID string) error {
	if err := c.store.DeleteRelation(ctx, userID, relation, objectType, objectID); err != nil {
		return err
	}
	c.cache.Invalidate(objectType, objectID)
	return nil
}

// WriteTuples 批量写入后清除涉及对象的缓存
func (c *CachedRelationStore) WriteTuples(ctx context.Context, writes, deletes []Tuple) error {
	if err := writeTuples(ctx, c.store, writes, deletes); err != nil {
		return err
	}
	for _, t := range append(append([]Tuple(nil), writes...), deletes...) {
		c.cache.Invalidate(t.ObjectType, t.ObjectID)
	}
	return nil
}
