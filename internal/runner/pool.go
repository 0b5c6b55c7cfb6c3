package runner

import (
	"context"
	"sync"
)

type Job func(ctx context.Context) error

// RunPool runs jobs on at most maxWorkers goroutines and returns one error
// slot per job, in job order. Jobs not yet started when ctx is done are
// skipped and report ctx.Err().
func RunPool(ctx context.Context, maxWorkers int, jobs []Job) []error {
	maxWorkers = max(maxWorkers, 1)
	errs := make([]error, len(jobs))
	sem := make(chan struct{}, maxWorkers)
	var wg sync.WaitGroup

	for i, job := range jobs {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			errs[i] = ctx.Err()
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = job(ctx)
		}()
	}
	wg.Wait()
	return errs
}
