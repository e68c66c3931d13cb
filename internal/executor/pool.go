package executor

import (
	"context"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"golang.org/x/sync/semaphore"
)

// Pool runs each task on its own goroutine; at most Workers tasks run at
// once.
type Pool struct {
	sem     *semaphore.Weighted
	timeout time.Duration
	logger  log.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool creates a pool executor.
func NewPool(opts Options) *Pool {
	opts = opts.withDefaults()
	return &Pool{
		sem:     semaphore.NewWeighted(int64(opts.Workers)),
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
}

// Spawn starts task on a new goroutine. The goroutine waits for a free slot,
// so Spawn itself returns immediately.
func (p *Pool) Spawn(task Task) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = level.Warn(p.logger).Log("msg", "dropping task, executor closed")
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		if err := p.sem.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer p.sem.Release(1)
		run(task, p.timeout, p.logger)
	}()
}

func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *Pool) Wait() {
	p.wg.Wait()
}
