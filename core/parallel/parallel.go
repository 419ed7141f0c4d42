// Package parallel provides the chunked worker helpers used by the fitting
// and cross-validation code.
package parallel

import (
	"runtime"
	"sync"

	"github.com/YuminosukeSato/glmbench/pkg/errors"
)

// Parallelize divides the specified total number (items) according to the number of CPU cores,
// and executes the specified function (fn) in parallel for each range (start, end)
func Parallelize(items int, fn func(start, end int)) {
	ParallelizeN(items, runtime.NumCPU(), fn)
}

// ParallelizeN is Parallelize with at most workers goroutines.
// workers <= 0 means runtime.NumCPU().
func ParallelizeN(items, workers int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > items {
		numWorkers = items // No need for more workers than items
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

// ParallelizeWithThreshold performs parallelization only when the number of items exceeds the threshold
// If below threshold, normal sequential processing is performed
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}

	Parallelize(items, fn)
}

// ForEach runs fn(i) for every i in [0, items) using at most workers
// goroutines. Each index runs exactly once. workers == 1 runs serially in
// index order on the calling goroutine.
//
// It returns the error of the lowest failing index. A panic in fn is
// recovered on the goroutine that raised it and returned as a
// *errors.PanicError.
func ForEach(items, workers int, fn func(i int) error) error {
	errs := make([]error, items)
	if workers == 1 {
		for i := 0; i < items; i++ {
			errs[i] = call(fn, i)
		}
	} else {
		ParallelizeN(items, workers, func(start, end int) {
			for i := start; i < end; i++ {
				errs[i] = call(fn, i)
			}
		})
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func call(fn func(i int) error, i int) (err error) {
	defer errors.Recover(&err, "parallel.ForEach")
	return fn(i)
}
