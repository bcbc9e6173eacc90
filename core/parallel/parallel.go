// Package parallel provides chunked fan-out helpers used by the boosting
// engine for histogram construction and batch prediction.
package parallel

import (
	"runtime"
	"sync"
)

// Workers resolves a thread budget: values <= 0 mean one worker per CPU core.
func Workers(numThreads int) int {
	if numThreads <= 0 {
		return runtime.NumCPU()
	}
	return numThreads
}

// Parallelize divides items into contiguous ranges and runs fn on each range
// using one goroutine per CPU core.
func Parallelize(items int, fn func(start, end int)) {
	ParallelizeN(items, 0, fn)
}

// ParallelizeN is Parallelize with an explicit worker count. numWorkers <= 0
// uses all cores; a single worker runs fn on the caller goroutine.
func ParallelizeN(items, numWorkers int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers = Workers(numWorkers)
	if numWorkers > items {
		numWorkers = items
	}
	if numWorkers == 1 {
		fn(0, items)
		return
	}

	// ceiling division
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially when items <= threshold and
// fans out over numWorkers otherwise.
func ParallelizeWithThreshold(items, threshold, numWorkers int, fn func(start, end int)) {
	if items <= threshold {
		if items > 0 {
			fn(0, items)
		}
		return
	}
	ParallelizeN(items, numWorkers, fn)
}
