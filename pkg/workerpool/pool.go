// Package workerpool runs independent scan evaluations on a bounded set of
// goroutines.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned when work is submitted to a closed pool.
var ErrClosed = errors.New("workerpool: pool closed")

// ErrPanic wraps a panic recovered from a task run through Map.
var ErrPanic = errors.New("workerpool: task panicked")

// Pool runs tasks on at most Cap goroutines. Workers start lazily and
// stay alive until Close.
type Pool struct {
	workers int32
	tasks   chan func()
	running int32
	closed  int32

	mu sync.RWMutex
	wg sync.WaitGroup
}

// New creates a pool with the given number of workers. A non-positive
// count selects GOMAXPROCS.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		workers: int32(workers),
		tasks:   make(chan func(), workers*4),
	}
}

// Submit queues task, blocking while the queue is full. It returns false
// if the pool is closed.
func (p *Pool) Submit(task func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if atomic.LoadInt32(&p.closed) == 1 {
		return false
	}

	for {
		running := atomic.LoadInt32(&p.running)
		if running >= p.workers {
			break
		}
		if atomic.CompareAndSwapInt32(&p.running, running, running+1) {
			p.wg.Add(1)
			go p.worker()
			break
		}
	}

	p.tasks <- task
	return true
}

func (p *Pool) worker() {
	defer p.wg.Done()
	defer atomic.AddInt32(&p.running, -1)
	for task := range p.tasks {
		p.run(task)
	}
}

// run executes one task. A panicking task does not take the worker down.
func (p *Pool) run(task func()) {
	defer func() { _ = recover() }()
	if task != nil {
		task()
	}
}

// Running returns the number of live workers.
func (p *Pool) Running() int {
	return int(atomic.LoadInt32(&p.running))
}

// Cap returns the worker limit.
func (p *Pool) Cap() int {
	return int(p.workers)
}

// Close stops accepting work, runs queued tasks and waits for workers to
// exit. Close is idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	if !atomic.CompareAndSwapInt32(&p.closed, 0, 1) {
		p.mu.Unlock()
		return
	}
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}

// IsClosed reports whether Close has been called.
func (p *Pool) IsClosed() bool {
	return atomic.LoadInt32(&p.closed) == 1
}

// Map runs fn for every item on the pool and returns results and errors
// in input order. Items not started before ctx is cancelled get ctx.Err().
// A panic inside fn is returned as an error wrapping ErrPanic.
func Map[T, R any](ctx context.Context, p *Pool, items []T, fn func(context.Context, T) (R, error)) ([]R, []error) {
	results := make([]R, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}
		wg.Add(1)
		ok := p.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("%w: %v", ErrPanic, r)
				}
			}()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			results[i], errs[i] = fn(ctx, item)
		})
		if !ok {
			errs[i] = ErrClosed
			wg.Done()
		}
	}
	wg.Wait()
	return results, errs
}
