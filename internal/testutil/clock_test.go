package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock_StartsAtEpoch(t *testing.T) {
	c := NewDeterministicClock()
	assert.Equal(t, Epoch, c.Now())
}

func TestDeterministicClock_AdvancesByStep(t *testing.T) {
	c := NewDeterministicClockAt(Epoch, time.Minute)

	assert.Equal(t, Epoch, c.Now())
	assert.Equal(t, Epoch.Add(time.Minute), c.Now())
	assert.Equal(t, Epoch.Add(2*time.Minute), c.Now())
	assert.Equal(t, int64(3), c.Calls())
}

func TestDeterministicClock_Reset(t *testing.T) {
	c := NewDeterministicClock()
	c.Now()
	c.Now()

	c.Reset()

	assert.Equal(t, int64(0), c.Calls())
	assert.Equal(t, Epoch, c.Now(), "after Reset the clock restarts at the start time")
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	c := NewDeterministicClock()
	const goroutines = 10
	const perGoroutine = 100

	var mu sync.Mutex
	seen := make(map[time.Time]bool)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				now := c.Now()
				mu.Lock()
				seen[now] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(goroutines*perGoroutine), c.Calls())
	assert.Len(t, seen, goroutines*perGoroutine, "every call returns a distinct time")
}
