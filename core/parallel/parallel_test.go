package parallel

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelizeCoversEveryItemOnce(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 64} {
		seen := make([]int32, 101)
		ParallelizeN(len(seen), workers, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, n := range seen {
			assert.Equal(t, int32(1), n, "workers=%d item=%d", workers, i)
		}
	}
}

func TestParallelizeZeroItems(t *testing.T) {
	called := false
	Parallelize(0, func(_, _ int) { called = true })
	assert.False(t, called)
}

func TestParallelizeWithThreshold(t *testing.T) {
	var mu sync.Mutex
	var ranges [][2]int
	ParallelizeWithThreshold(10, 100, 4, func(s, e int) {
		mu.Lock()
		defer mu.Unlock()
		ranges = append(ranges, [2]int{s, e})
	})
	assert.Equal(t, [][2]int{{0, 10}}, ranges)
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, 3, Workers(3))
	assert.Greater(t, Workers(0), 0)
}
