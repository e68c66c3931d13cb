package executor

import (
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// Cooperative runs tasks one at a time, in submission order, on a single
// goroutine. A task that blocks holds up every task queued behind it.
type Cooperative struct {
	timeout time.Duration
	logger  log.Logger

	mu      sync.Mutex
	queue   []Task
	closed  bool
	pending sync.WaitGroup
	wake    chan struct{}
	done    chan struct{}
}

// NewCooperative creates the executor and starts its run loop.
func NewCooperative(opts Options) *Cooperative {
	opts = opts.withDefaults()
	c := &Cooperative{
		timeout: opts.Timeout,
		logger:  opts.Logger,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go c.loop()
	return c
}

// Spawn appends task to the run queue.
func (c *Cooperative) Spawn(task Task) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = level.Warn(c.logger).Log("msg", "dropping task, executor closed")
		return
	}
	c.pending.Add(1)
	c.queue = append(c.queue, task)
	c.mu.Unlock()
	c.signal()
}

func (c *Cooperative) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Cooperative) next() (Task, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return nil, false, c.closed
	}
	task := c.queue[0]
	c.queue[0] = nil
	c.queue = c.queue[1:]
	return task, true, false
}

func (c *Cooperative) loop() {
	defer close(c.done)
	for {
		task, ok, closed := c.next()
		if closed {
			return
		}
		if !ok {
			<-c.wake
			continue
		}
		run(task, c.timeout, c.logger)
		c.pending.Done()
	}
}

// Close stops accepting tasks; queued tasks still run before the loop exits.
func (c *Cooperative) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.signal()
}

func (c *Cooperative) Wait() {
	c.pending.Wait()
}
