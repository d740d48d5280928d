package api

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAILimiterPool(t *testing.T) {
	t.Run("same user keeps one limiter", func(t *testing.T) {
		pool := newAILimiterPool()
		uid := uuid.New()
		now := time.Now()
		first := pool.get(uid, now)
		second := pool.get(uid, now.Add(time.Minute))
		assert.Same(t, first, second)
	})

	t.Run("idle entries are swept", func(t *testing.T) {
		pool := newAILimiterPool()
		base := time.Now()
		pool.lastSweep = base

		staleID := uuid.New()
		freshID := uuid.New()
		pool.get(staleID, base)
		pool.get(freshID, base.Add(45*time.Minute))

		// this access crosses the sweep interval and drops the stale entry
		pool.get(uuid.New(), base.Add(90*time.Minute))

		pool.mu.Lock()
		_, staleKept := pool.limiters[staleID]
		_, freshKept := pool.limiters[freshID]
		size := len(pool.limiters)
		pool.mu.Unlock()
		assert.False(t, staleKept)
		assert.True(t, freshKept)
		assert.Equal(t, 2, size)
	})
}
