package utils

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Small redis-backed cache with an in-memory fallback so read endpoints
// keep working when Redis is down.

type memEntry struct {
	data    []byte
	expires time.Time
}

var (
	memCache   = map[string]memEntry{}
	memCacheMu sync.Mutex
)

// CacheGetBytes fetches a cached value by key.
func CacheGetBytes(ctx context.Context, key string) ([]byte, bool) {
	if data, err := GetRedis().Get(ctx, key).Bytes(); err == nil {
		return data, true
	}

	memCacheMu.Lock()
	defer memCacheMu.Unlock()
	e, ok := memCache[key]
	if !ok || time.Now().After(e.expires) {
		delete(memCache, key)
		return nil, false
	}
	return e.data, true
}

// CacheSetJSON stores a JSON-encoded value under key with a TTL.
func CacheSetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := GetRedis().Set(ctx, key, data, ttl).Err(); err == nil {
		return
	}

	memCacheMu.Lock()
	memCache[key] = memEntry{data: data, expires: time.Now().Add(ttl)}
	memCacheMu.Unlock()
}

// CacheDelete drops keys from both layers.
func CacheDelete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	_ = GetRedis().Del(ctx, keys...).Err()
	memCacheMu.Lock()
	for _, k := range keys {
		delete(memCache, k)
	}
	memCacheMu.Unlock()
}

// InvalidateByPrefix removes all redis keys matching prefix*.
func InvalidateByPrefix(ctx context.Context, prefix string) {
	rdb := GetRedis()
	iter := rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		_ = rdb.Del(ctx, keys...).Err()
	}

	memCacheMu.Lock()
	for k := range memCache {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(memCache, k)
		}
	}
	memCacheMu.Unlock()
}
