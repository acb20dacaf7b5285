// Package parallel runs independent layer jobs on a fixed set of goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool runs submitted jobs on a fixed number of goroutines.
//
// Jobs are queued on one shared channel. Submit blocks while the queue is
// full, which bounds how many decoded frames wait for scaling at once.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int
	queue   chan func()

	// workerWG tracks worker goroutines, jobWG tracks submitted jobs.
	workerWG sync.WaitGroup
	jobWG    sync.WaitGroup

	running atomic.Bool
	once    sync.Once
}

// NewWorkerPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &WorkerPool{
		workers: workers,
		queue:   make(chan func(), 2*workers),
	}
	p.running.Store(true)

	p.workerWG.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *WorkerPool) worker() {
	defer p.workerWG.Done()
	for job := range p.queue {
		job()
		p.jobWG.Done()
	}
}

// Submit queues fn. After Close, fn runs on the caller's goroutine so no
// work is lost.
func (p *WorkerPool) Submit(fn func()) {
	if fn == nil {
		return
	}
	if !p.running.Load() {
		fn()
		return
	}
	p.jobWG.Add(1)
	p.queue <- fn
}

// Wait blocks until every job submitted so far has finished.
func (p *WorkerPool) Wait() {
	p.jobWG.Wait()
}

// Close waits for queued jobs and stops the workers. Submit must not be
// called concurrently with Close. Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	p.once.Do(func() {
		p.running.Store(false)
		close(p.queue)
		p.workerWG.Wait()
	})
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool still accepts work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
