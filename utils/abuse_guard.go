package utils

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Fixed-window abuse counters for signup style endpoints. Backed by
// redis INCR+EXPIRE, falling back to process-local counters.

type memWindow struct {
	count   int
	expires time.Time
}

var (
	abuseMem   = map[string]memWindow{}
	abuseMemMu sync.Mutex
)

// AllowAction increments the counter for scope:key and reports whether
// the caller is still under limit for the window.
func AllowAction(ctx context.Context, scope, key string, limit int, window time.Duration) bool {
	if key == "" {
		return true
	}
	rkey := fmt.Sprintf("abuse:%s:%s", scope, key)

	rdb := GetRedis()
	count, err := rdb.Incr(ctx, rkey).Result()
	if err == nil {
		if count == 1 {
			_ = rdb.Expire(ctx, rkey, window).Err()
		}
		return count <= int64(limit)
	}

	abuseMemMu.Lock()
	defer abuseMemMu.Unlock()
	w, ok := abuseMem[rkey]
	if !ok || time.Now().After(w.expires) {
		abuseMem[rkey] = memWindow{count: 1, expires: time.Now().Add(window)}
		return true
	}
	w.count++
	abuseMem[rkey] = w
	return w.count <= limit
}
