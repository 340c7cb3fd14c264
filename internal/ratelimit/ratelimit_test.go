package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowUpToQuota(t *testing.T) {
	l := New(5, 10*time.Minute)
	now := time.Now()

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("10.0.0.1", now), "attempt %d should be allowed", i+1)
	}
	assert.False(t, l.Allow("10.0.0.1", now), "6th attempt should be rejected")
	assert.False(t, l.Allow("10.0.0.1", now.Add(time.Second)), "still inside the window")
}

func TestRejectionDoesNotConsumeSlot(t *testing.T) {
	l := New(2, 10*time.Minute)
	now := time.Now()

	assert.True(t, l.Allow("c", now))
	assert.True(t, l.Allow("c", now))

	// Rejected attempts must not extend the window
	for i := 0; i < 10; i++ {
		assert.False(t, l.Allow("c", now.Add(time.Duration(i)*time.Second)))
	}

	// Once the two recorded events expire, the client is admitted again,
	// regardless of how many rejections happened in between
	assert.True(t, l.Allow("c", now.Add(10*time.Minute+time.Millisecond)))
}

func TestWindowSlides(t *testing.T) {
	l := New(5, 10*time.Minute)
	base := time.Now()

	// One event per minute for five minutes fills the quota
	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("c", base.Add(time.Duration(i)*time.Minute)))
	}
	assert.False(t, l.Allow("c", base.Add(5*time.Minute)))

	// At base+10m+30s the first event has slid out, freeing one slot
	assert.True(t, l.Allow("c", base.Add(10*time.Minute+30*time.Second)))
	assert.False(t, l.Allow("c", base.Add(10*time.Minute+31*time.Second)))
}

func TestSpacedAttemptsNeverAccumulate(t *testing.T) {
	l := New(5, 10*time.Minute)
	now := time.Now()

	// Attempts spaced beyond the window never count against each other
	for i := 0; i < 20; i++ {
		assert.True(t, l.Allow("c", now))
		now = now.Add(10*time.Minute + time.Second)
	}
}

func TestClientsAreIndependent(t *testing.T) {
	l := New(1, 10*time.Minute)
	now := time.Now()

	assert.True(t, l.Allow("a", now))
	assert.True(t, l.Allow("b", now))
	assert.False(t, l.Allow("a", now))
	assert.False(t, l.Allow("b", now))
	assert.Equal(t, 2, l.Tracked())
}

func TestConcurrentBurstAdmitsExactlyQuota(t *testing.T) {
	const quota = 5
	const attempts = 50

	l := New(quota, 10*time.Minute)
	now := time.Now()

	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("burst", now) {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(quota), allowed)
}
