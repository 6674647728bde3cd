package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		burst    int
	}{
		{name: "standard", interval: 100 * time.Millisecond, burst: 2},
		{name: "slow", interval: 5 * time.Second, burst: 1},
		{name: "unlimited (zero interval)", interval: 0, burst: 0},
		{name: "negative burst", interval: time.Second, burst: -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := New(tt.interval, tt.burst)
			require.NotNil(t, limiter)
			require.NotNil(t, limiter.limiter)
			assert.True(t, limiter.Allow(), "first event must always pass")
		})
	}
}

func TestAllow(t *testing.T) {
	limiter := New(100*time.Millisecond, 2)

	assert.True(t, limiter.Allow())
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow(), "burst exhausted")

	time.Sleep(120 * time.Millisecond)
	assert.True(t, limiter.Allow(), "token replenished")
}

func TestWait(t *testing.T) {
	limiter := New(50*time.Millisecond, 1)
	require.True(t, limiter.Allow())

	start := time.Now()
	require.NoError(t, limiter.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestWait_Cancelled(t *testing.T) {
	limiter := New(time.Hour, 1)
	require.True(t, limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.Error(t, limiter.Wait(ctx))
}

func TestUnlimited(t *testing.T) {
	limiter := New(0, 1)
	for i := 0; i < 1000; i++ {
		require.True(t, limiter.Allow())
	}
}

func TestSetInterval(t *testing.T) {
	limiter := New(time.Hour, 1)
	require.True(t, limiter.Allow())
	require.False(t, limiter.Allow())

	limiter.SetInterval(0)
	assert.True(t, limiter.Allow())
}
