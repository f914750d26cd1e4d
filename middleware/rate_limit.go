package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/songbirdapp/songbird/utils"
)

// Per-caller rate limits. Redis fixed windows shared across instances;
// local token buckets take over when Redis is unreachable.

type localLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterPool struct {
	mu       sync.Mutex
	limiters map[string]*localLimiter
	rps      rate.Limit
	burst    int
}

func newLimiterPool(limit int, window time.Duration) *limiterPool {
	p := &limiterPool{
		limiters: make(map[string]*localLimiter),
		rps:      rate.Limit(float64(limit) / window.Seconds()),
		burst:    limit,
	}
	go p.cleanup()
	return p
}

func (p *limiterPool) allow(key string) bool {
	p.mu.Lock()
	l, ok := p.limiters[key]
	if !ok {
		l = &localLimiter{limiter: rate.NewLimiter(p.rps, p.burst)}
		p.limiters[key] = l
	}
	l.lastSeen = time.Now()
	p.mu.Unlock()
	return l.limiter.Allow()
}

func (p *limiterPool) cleanup() {
	for range time.Tick(time.Minute) {
		p.mu.Lock()
		for key, l := range p.limiters {
			if time.Since(l.lastSeen) > 5*time.Minute {
				delete(p.limiters, key)
			}
		}
		p.mu.Unlock()
	}
}

// RateLimit enforces limit requests per window per caller within a named
// category. Authenticated callers are keyed by user id, anonymous by IP.
func RateLimit(category string, limit int, window time.Duration) gin.HandlerFunc {
	fallback := newLimiterPool(limit, window)

	return func(ctx *gin.Context) {
		key := callerKey(ctx)
		rkey := fmt.Sprintf("ratelimit:%s:%s:%d", category, key, time.Now().Unix()/int64(window.Seconds()))

		rdb := utils.GetRedis()
		count, err := rdb.Incr(ctx.Request.Context(), rkey).Result()
		var allowed bool
		if err == nil {
			if count == 1 {
				_ = rdb.Expire(ctx.Request.Context(), rkey, window).Err()
			}
			allowed = count <= int64(limit)
		} else {
			allowed = fallback.allow(category + ":" + key)
		}

		if !allowed {
			ctx.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			utils.Error(ctx, http.StatusTooManyRequests, 42900, "too many requests, slow down")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func callerKey(ctx *gin.Context) string {
	if v, ok := ctx.Get("user_id"); ok {
		if id, ok := v.(uint); ok {
			return "u" + strconv.FormatUint(uint64(id), 10)
		}
	}
	return "ip" + ctx.ClientIP()
}
