// Package workerpool bounds the goroutines used for concurrent work.
//
// The auction sweep resolves every expired listing through a Pool so a large
// backlog fans out across a fixed number of workers instead of spawning one
// goroutine per listing:
//
//	pool := workerpool.New(4)
//	defer pool.Shutdown()
//
//	for _, l := range expired {
//		l := l
//		if err := pool.SubmitWait(func() { settle(l) }); err != nil {
//			break
//		}
//	}
package workerpool

import (
	"errors"
	"sync"
)

// ErrPoolFull is returned by Submit when the job buffer is at capacity.
var ErrPoolFull = errors.New("workerpool: pool is full")

// ErrPoolClosed is returned once Shutdown has been called.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Pool runs submitted jobs on a fixed set of worker goroutines.
type Pool struct {
	jobs     chan func()
	done     chan struct{}
	workers  sync.WaitGroup
	shutdown sync.Once
}

// New starts a pool with the given number of workers. The job buffer holds
// twice the worker count so short bursts queue instead of failing.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{
		jobs: make(chan func(), size*2),
		done: make(chan struct{}),
	}
	p.workers.Add(size)
	for i := 0; i < size; i++ {
		go p.work()
	}
	return p
}

// Submit enqueues job without blocking. It returns ErrPoolFull when the
// buffer is at capacity and ErrPoolClosed after Shutdown.
func (p *Pool) Submit(job func()) error {
	select {
	case <-p.done:
		return ErrPoolClosed
	default:
	}
	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitWait blocks until the job is enqueued or the pool closes.
func (p *Pool) SubmitWait(job func()) error {
	select {
	case <-p.done:
		return ErrPoolClosed
	case p.jobs <- job:
		return nil
	}
}

// Shutdown stops intake, drains the queued jobs, and waits for the workers
// to exit. Safe to call more than once.
func (p *Pool) Shutdown() {
	p.shutdown.Do(func() {
		close(p.done)
		close(p.jobs)
		p.workers.Wait()
	})
}

func (p *Pool) work() {
	defer p.workers.Done()
	for job := range p.jobs {
		run(job)
	}
}

// run isolates a panicking job from its worker goroutine.
func run(job func()) {
	defer func() { recover() }() //nolint:errcheck
	job()
}
