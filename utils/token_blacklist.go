package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Logout blacklist. Redis-first with an in-memory fallback, keyed by
// token digest so raw tokens never land in storage.

var (
	blacklistMem   = map[string]time.Time{}
	blacklistMemMu sync.Mutex
)

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "token:blacklist:" + hex.EncodeToString(sum[:])
}

// BlacklistToken marks a token as revoked until it would naturally expire.
func BlacklistToken(ctx context.Context, token string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	key := tokenDigest(token)
	if err := GetRedis().Set(ctx, key, "1", ttl).Err(); err == nil {
		return
	}

	blacklistMemMu.Lock()
	blacklistMem[key] = time.Now().Add(ttl)
	blacklistMemMu.Unlock()
}

// IsTokenBlacklisted reports whether a token has been revoked.
func IsTokenBlacklisted(ctx context.Context, token string) bool {
	key := tokenDigest(token)
	if n, err := GetRedis().Exists(ctx, key).Result(); err == nil {
		return n > 0
	}

	blacklistMemMu.Lock()
	defer blacklistMemMu.Unlock()
	exp, ok := blacklistMem[key]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(blacklistMem, key)
		return false
	}
	return true
}
