// Package parallel splits index ranges across worker goroutines. The CPU
// backend uses it for elementwise kernels over large buffers.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls how work is split.
type Config struct {
	// Enabled turns parallel execution on.
	Enabled bool
	// NumWorkers is the number of goroutines to split across.
	NumWorkers int
	// MinChunkSize is the smallest range worth a goroutine; shorter
	// ranges run sequentially.
	MinChunkSize int
}

// DefaultConfig sizes the pool from the CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 4096,
	}
}

// For runs f(i) for every i in [0, n), splitting the range across workers
// when it is large enough.
func For(n int, f func(i int), cfg Config) {
	ForRange(n, func(start, end int) {
		for i := start; i < end; i++ {
			f(i)
		}
	}, cfg)
}

// ForRange runs f(start, end) on disjoint subranges of [0, n) so callers
// can keep tight inner loops instead of paying a closure call per index.
func ForRange(n int, f func(start, end int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinChunkSize {
		f(0, n)
		return
	}

	chunk := (n + cfg.NumWorkers - 1) / cfg.NumWorkers
	if chunk < cfg.MinChunkSize {
		chunk = cfg.MinChunkSize
	}

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			f(s, e)
		}(start, end)
	}
	wg.Wait()
}
