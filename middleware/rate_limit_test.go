package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterPoolAllowsWithinBurst(t *testing.T) {
	p := newLimiterPool(5, time.Minute)
	for i := 0; i < 5; i++ {
		assert.True(t, p.allow("client-a"), "request %d should pass", i+1)
	}
	assert.False(t, p.allow("client-a"), "sixth request should be limited")
}

func TestLimiterPoolIsolatesKeys(t *testing.T) {
	p := newLimiterPool(1, time.Minute)
	assert.True(t, p.allow("client-a"))
	assert.False(t, p.allow("client-a"))
	assert.True(t, p.allow("client-b"))
}
