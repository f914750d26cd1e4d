package utils

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// One-time OAuth state tokens. Redis GETDEL gives atomic consume; the
// in-memory map covers single-instance deployments without Redis.

const oauthStateTTL = 10 * time.Minute

var (
	stateMem   = map[string]time.Time{}
	stateMemMu sync.Mutex
)

// NewOAuthState generates and stores a random state value.
func NewOAuthState(ctx context.Context) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	state := hex.EncodeToString(buf)

	if err := GetRedis().Set(ctx, "oauth:state:"+state, "1", oauthStateTTL).Err(); err != nil {
		stateMemMu.Lock()
		stateMem[state] = time.Now().Add(oauthStateTTL)
		stateMemMu.Unlock()
	}
	return state, nil
}

// ConsumeOAuthState validates and removes a state value in one step.
func ConsumeOAuthState(ctx context.Context, state string) bool {
	if state == "" {
		return false
	}
	if v, err := GetRedis().GetDel(ctx, "oauth:state:"+state).Result(); err == nil {
		return v != ""
	}

	stateMemMu.Lock()
	defer stateMemMu.Unlock()
	exp, ok := stateMem[state]
	delete(stateMem, state)
	return ok && time.Now().Before(exp)
}
