// Package parallel runs independent jobs on a bounded number of goroutines.
package parallel

import (
	"errors"
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled    bool // Whether parallel execution is enabled.
	NumWorkers int  // Upper bound on concurrently running jobs.
}

// DefaultConfig returns defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
	}
}

// Each executes f(i) for i in [0, n) and returns the joined errors in index
// order. Every job runs even if an earlier one fails.
func Each(n int, f func(i int) error, cfg Config) error {
	errs := make([]error, n)
	workers := min(cfg.NumWorkers, n)
	if !cfg.Enabled || workers < 2 {
		// Sequential fallback.
		for i := 0; i < n; i++ {
			errs[i] = f(i)
		}
		return errors.Join(errs...)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				errs[i] = f(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return errors.Join(errs...)
}
