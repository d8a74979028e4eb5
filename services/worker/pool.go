package worker

import (
	"context"
	"sync"
)

// Result is the outcome of one indexed job
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// Pool runs indexed jobs on a bounded number of goroutines
type Pool struct {
	size int
}

// NewPool creates a pool with size workers; size < 1 means one worker
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{size: size}
}

// Size returns the number of workers
func (p *Pool) Size() int {
	return p.size
}

// Run executes job for every index in [0, n) and returns the results in index
// order regardless of completion order. Jobs not started before ctx is done
// report ctx.Err().
func Run[T any](ctx context.Context, p *Pool, n int, job func(ctx context.Context, i int) (T, error)) []Result[T] {
	results := make([]Result[T], n)
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < min(p.size, n); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				value, err := job(ctx, i)
				results[i] = Result[T]{Index: i, Value: value, Err: err}
			}
		}()
	}

	next := 0
feed:
	for ; next < n; next++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break feed
		case indexes <- next:
		}
	}
	close(indexes)
	wg.Wait()

	for i := next; i < n; i++ {
		results[i] = Result[T]{Index: i, Err: ctx.Err()}
	}
	return results
}
